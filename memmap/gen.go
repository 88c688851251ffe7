package memmap

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strings"
	"text/template"
)

//go:generate go run ../cmd/tilestream memmap --go-out memmap_gen.go --package memmap

var genTemplate = template.Must(template.New("memmap").Parse(
	`// Code generated by "tilestream memmap"; DO NOT EDIT.

package {{.Package}}

// Local memory capacity and the extent of the planned layout.
const (
	MemL1Size uint64 = {{.Capacity}}
	MemMapEnd uint64 = {{.End}}
)

// MemUnreservedBase is the first L1 address available to circular buffers.
const MemUnreservedBase uint64 = {{.Unreserved}}

// Planned L1 regions.
const (
{{- range $i, $r := .Regions}}
{{if $i}}
{{end}}	Mem{{$r.Ident}}Base uint64 = {{$r.Base}}
	Mem{{$r.Ident}}Size uint64 = {{$r.Size}}
{{- end}}
)

// Processor stacks in private local memory.
const (
{{- range $i, $r := .Stacks}}
{{if $i}}
{{end}}	Mem{{$r.Ident}}Base uint64 = {{printf "0x%x" $r.Base}}
	Mem{{$r.Ident}}Size uint64 = {{$r.Size}}
{{- end}}
)

// The layout must fit in L1. This declaration does not compile otherwise.
const _ uint64 = MemL1Size - MemMapEnd
`))

type genRegion struct {
	Ident string
	Base  uint64
	Size  uint64
}

type genData struct {
	Package    string
	Capacity   uint64
	End        uint64
	Unreserved uint64
	Regions    []genRegion
	Stacks     []genRegion
}

// Ident converts a region name such as "trisc0_init_local" to the Go
// identifier fragment "Trisc0InitLocal".
func Ident(name string) string {
	var sb strings.Builder

	for _, part := range strings.Split(name, "_") {
		if part == "" {
			continue
		}

		sb.WriteString(strings.ToUpper(part[:1]))
		sb.WriteString(part[1:])
	}

	return sb.String()
}

// GenerateGo writes the layout as Go constants. The output includes a
// constant expression that only compiles when the layout fits in its
// capacity, so an oversized layout fails the build that includes it.
func GenerateGo(w io.Writer, pkg string, l Layout) error {
	data := genData{
		Package:    pkg,
		Capacity:   l.Capacity,
		End:        l.End(),
		Unreserved: UnreservedBase(l),
	}

	for _, r := range l.Regions() {
		data.Regions = append(data.Regions,
			genRegion{Ident(r.Name), r.Base, r.Size})
	}

	for p := BRISC; p < NumProcessors; p++ {
		s := StackRegion(p)
		data.Stacks = append(data.Stacks, genRegion{Ident(s.Name), s.Base, s.Size})
	}

	var buf bytes.Buffer
	if err := genTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("render memory map: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format memory map: %w", err)
	}

	_, err = w.Write(src)

	return err
}
