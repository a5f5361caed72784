package sources

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/medline/core/medline"
)

// FormatName is reported for detected MEDLINE files.
const FormatName = "medline"

// Extensions are the file suffixes treated as MEDLINE, before any
// compression suffix.
var Extensions = []string{".nbib", ".medline", ".med", ".txt"}

// detectLines bounds how far Detect reads into a file.
const detectLines = 64

// DetectResult is the outcome of Detect.
type DetectResult struct {
	Detected    bool
	Format      string
	Compression Compression
	Reason      string
}

// Detect reports whether path looks like a MEDLINE file. Content with a
// PMID line, or with at least two known tag lines, is detected regardless
// of extension; a MEDLINE extension lowers the bar to one tag line.
func Detect(path string) *DetectResult {
	info, err := os.Stat(path)
	if err != nil {
		return &DetectResult{Reason: fmt.Sprintf("cannot stat: %v", err)}
	}
	if info.IsDir() {
		return &DetectResult{Reason: "path is a directory, not a file"}
	}

	ext := strings.ToLower(filepath.Ext(trimCompressionExt(path)))
	extensionMatch := false
	for _, valid := range Extensions {
		if ext == valid {
			extensionMatch = true
			break
		}
	}

	r, err := Open(path)
	if err != nil {
		return &DetectResult{Reason: fmt.Sprintf("cannot read: %v", err)}
	}
	defer r.Close()

	pmid, tags := scanTags(r)
	switch {
	case pmid:
		return &DetectResult{Detected: true, Format: FormatName, Compression: r.Compression, Reason: "PMID tag line detected"}
	case tags >= 2:
		return &DetectResult{Detected: true, Format: FormatName, Compression: r.Compression, Reason: fmt.Sprintf("%d MEDLINE tag lines detected", tags)}
	case extensionMatch && tags > 0:
		return &DetectResult{Detected: true, Format: FormatName, Compression: r.Compression, Reason: fmt.Sprintf("%s file extension detected", ext)}
	}
	return &DetectResult{Compression: r.Compression, Reason: fmt.Sprintf("not a %s file", FormatName)}
}

// scanTags counts known field-open lines in the head of r.
func scanTags(r io.Reader) (pmid bool, tags int) {
	scanner := bufio.NewScanner(r)
	for i := 0; i < detectLines && scanner.Scan(); i++ {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) < 6 || line[4:6] != "- " {
			continue
		}
		entry, ok := medline.LookupTag(line[:4])
		if !ok {
			continue
		}
		if entry.Name == "recNo" {
			pmid = true
		}
		tags++
	}
	return pmid, tags
}
