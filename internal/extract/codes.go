package extract

import (
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-ddt-reader/internal/patterns"
)

// FindClientCode returns the first labeled customer code.
func FindClientCode(lines []string) string {
	for _, line := range lines {
		for _, re := range patterns.ClientCodes {
			if m := re.FindStringSubmatch(line); m != nil {
				return m[1]
			}
		}
	}
	return ""
}

// FileName is the information carried by a conventional file name such as
// FTV_703446_2025_20001_4227_20250610.pdf.
type FileName struct {
	Prefix       string
	InternalCode string
	Year         string
	CustomerCode string
	Number       string
	Date         string
}

// ParseFileName splits a conventional file name. The second result is false
// when the name does not follow the convention.
func ParseFileName(name string) (FileName, bool) {
	base := filepath.Base(strings.TrimSpace(name))
	m := patterns.FileName.FindStringSubmatch(base)
	if m == nil {
		return FileName{}, false
	}
	return FileName{
		Prefix:       strings.ToUpper(m[1]),
		InternalCode: m[2],
		Year:         m[3],
		CustomerCode: m[4],
		Number:       m[5],
		Date:         m[6],
	}, true
}
