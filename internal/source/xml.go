package source

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/tabmerge/internal/table"
)

// XML reads documents shaped as
//
//	<root>
//	  <objects>
//	    <object name="D1"><value>a</value><value>b</value></object>
//	  </objects>
//	</root>
//
// The name attribute of each object is the field name and the text of each
// child element is one value. Objects sharing a name extend the same field.
// The child element names are not interpreted.
type XML struct {
	name string
	path string
}

// NewXML creates an XML source.
func NewXML(name, path string) *XML {
	return &XML{name: name, path: path}
}

// Name returns the source name.
func (s *XML) Name() string { return s.name }

// Path returns the file path.
func (s *XML) Path() string { return s.path }

// Open reads the whole file.
func (s *XML) Open(_ context.Context) (*table.ColumnTable, error) {
	file, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return parseXML(bufio.NewReader(file))
}

type xmlDocument struct {
	Objects []xmlObject `xml:"objects>object"`
}

type xmlObject struct {
	Name   string     `xml:"name,attr"`
	Values []xmlValue `xml:",any"`
}

type xmlValue struct {
	XMLName xml.Name
	Text    string `xml:",chardata"`
}

func parseXML(r io.Reader) (*table.ColumnTable, error) {
	var doc xmlDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("invalid XML: %w", err)
	}

	t := table.New()
	for i, obj := range doc.Objects {
		if obj.Name == "" {
			return nil, fmt.Errorf("object %d has no name attribute", i+1)
		}
		values := make([]string, len(obj.Values))
		for j, v := range obj.Values {
			values[j] = v.Text
		}
		t.Append(obj.Name, values...)
	}
	return t, nil
}
