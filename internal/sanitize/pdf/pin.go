package pdf

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PinnedDate replaces the writer's wall-clock CreationDate and ModDate
const PinnedDate = "D:19700101000000+00'00'"

var (
	stampedDate = regexp.MustCompile(`/(?:CreationDate|ModDate)\s*\((D:\d{14}[+-]\d{2}'\d{2}')\)`)
	trailerID   = regexp.MustCompile(`/ID\s*\[\s*<([0-9A-Fa-f]*)>\s*<([0-9A-Fa-f]*)>\s*\]`)
)

// pinVolatile overwrites, in place, the info dictionary dates and the file
// identifiers the writer derives from the clock. Replacements keep their
// length so cross-reference offsets stay valid. The identifier is derived
// from the input hash; an identifier carried over from the input is kept.
func pinVolatile(out []byte, ctx *model.Context, input []byte, hadID bool) {
	if ctx.Info != nil {
		header := fmt.Sprintf("\n%d %d obj", ctx.Info.ObjectNumber, ctx.Info.GenerationNumber)
		if start := bytes.Index(out, []byte(header)); start >= 0 {
			end := bytes.Index(out[start:], []byte("endobj"))
			if end < 0 {
				end = len(out) - start
			}
			info := out[start : start+end]
			for _, m := range stampedDate.FindAllSubmatchIndex(info, -1) {
				copy(info[m[2]:m[3]], PinnedDate)
			}
		}
	}

	trailer := bytes.LastIndex(out, []byte("trailer"))
	if trailer < 0 {
		return
	}
	m := trailerID.FindSubmatchIndex(out[trailer:])
	if m == nil {
		return
	}
	sum := sha256.Sum256(input)
	digest := hex.EncodeToString(sum[:])
	if !hadID {
		fillHex(out[trailer+m[2]:trailer+m[3]], digest)
	}
	fillHex(out[trailer+m[4]:trailer+m[5]], digest)
}

func fillHex(dst []byte, digest string) {
	for i := range dst {
		dst[i] = digest[i%len(digest)]
	}
}
