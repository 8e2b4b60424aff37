package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

// readDocx extracts text paragraph by paragraph, one line break per paragraph.
func readDocx(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	paragraphs, err := paragraphs(doc.Editable().GetContent())
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	for _, p := range paragraphs {
		builder.WriteString(p)
		builder.WriteString("\n")
	}

	return builder.String(), nil
}

// paragraphs walks WordprocessingML and returns the text of every <w:p>.
// Paragraphs nested in text boxes are emitted before the paragraph holding them.
// Tabs and breaks count only inside a run, so tab stop definitions in
// paragraph properties add nothing.
func paragraphs(documentXML string) ([]string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		result   []string
		open     []*strings.Builder
		inText   bool
		runDepth int
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode document xml: %w", err)
		}

		var current *strings.Builder
		if len(open) > 0 {
			current = open[len(open)-1]
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				open = append(open, &strings.Builder{})
			case "r":
				runDepth++
			case "t":
				inText = true
			case "tab":
				if runDepth > 0 && current != nil {
					current.WriteString("\t")
				}
			case "br", "cr":
				if runDepth > 0 && current != nil {
					current.WriteString("\n")
				}
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "r":
				if runDepth > 0 {
					runDepth--
				}
			case "p":
				if current != nil {
					result = append(result, current.String())
					open = open[:len(open)-1]
				}
			}
		case xml.CharData:
			if inText && current != nil {
				current.Write(t)
			}
		}
	}

	return result, nil
}
