// Package testutil builds in-memory fixtures for TXT, PDF, DOCX and WAV
// artifacts. It is only imported from tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

// BuildPDF returns a minimal PDF with one page per entry, each page
// showing its text in Helvetica. An empty entry yields a page without
// text.
func BuildPDF(pages ...string) []byte {
	streams := make([]string, len(pages))
	for i, text := range pages {
		if text != "" {
			streams[i] = fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", escapePDF(text))
		}
	}
	return BuildPDFStreams(streams...)
}

// BuildPDFStreams is BuildPDF with raw page content streams.
func BuildPDFStreams(streams ...string) []byte {
	// 1 catalog, 2 page tree, 3 font, then a page and its content per stream.
	kids := make([]string, len(streams))
	for i := range streams {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}

	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(streams)),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>",
	}
	for i, content := range streams {
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, obj := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)
	return buf.Bytes()
}

func escapePDF(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return r.Replace(s)
}

// BuildDOCX returns a minimal Word package whose body holds one
// paragraph per entry. A "\t" inside an entry becomes a w:tab element.
func BuildDOCX(paragraphs ...string) []byte {
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString("<w:p>")
		for i, part := range strings.Split(p, "\t") {
			if i > 0 {
				body.WriteString("<w:r><w:tab/></w:r>")
			}
			if part != "" {
				fmt.Fprintf(&body, `<w:r><w:t xml:space="preserve">%s</w:t></w:r>`, xmlEscape(part))
			}
		}
		body.WriteString("</w:p>")
	}
	return BuildDOCXRaw(body.String())
}

// BuildDOCXRaw wraps raw w:body content into a Word package.
func BuildDOCXRaw(bodyXML string) []byte {
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
		`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		bodyXML +
		`</w:body></w:document>`
	return BuildZip(map[string]string{
		"[Content_Types].xml": `<?xml version="1.0" encoding="UTF-8"?><Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"></Types>`,
		"word/document.xml":   doc,
	})
}

// BuildZip writes the given files into a zip archive.
func BuildZip(files map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func xmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// WAVSpec describes a PCM WAV fixture.
type WAVSpec struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// AudioFormat defaults to 1 (PCM).
	AudioFormat uint16
}

// BuildWAV returns a canonical RIFF/WAVE file wrapping data as-is.
func BuildWAV(spec WAVSpec, data []byte) []byte {
	format := spec.AudioFormat
	if format == 0 {
		format = 1
	}
	blockAlign := spec.Channels * spec.BitDepth / 8

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(36+len(data)))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(16))
	_ = binary.Write(&buf, binary.LittleEndian, format)
	_ = binary.Write(&buf, binary.LittleEndian, uint16(spec.Channels))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(spec.SampleRate))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(spec.SampleRate*blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(&buf, binary.LittleEndian, uint16(spec.BitDepth))
	buf.WriteString("data")
	_ = binary.Write(&buf, binary.LittleEndian, uint32(len(data)))
	buf.Write(data)
	return buf.Bytes()
}

// SineWAV returns a 16-bit mono tone of the given length.
func SineWAV(sampleRate int, seconds float64, freq float64) []byte {
	n := int(float64(sampleRate) * seconds)
	data := make([]byte, 2*n)
	for i := 0; i < n; i++ {
		v := int16(0.5 * math.MaxInt16 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate)))
		binary.LittleEndian.PutUint16(data[2*i:], uint16(v))
	}
	return BuildWAV(WAVSpec{SampleRate: sampleRate, Channels: 1, BitDepth: 16}, data)
}

// MP3FrameSamples is the number of samples per channel in one frame
// produced by BuildMP3.
const MP3FrameSamples = 1152

// BuildMP3 returns n silent MPEG-1 Layer III frames, mono, 44.1 kHz at
// 128 kbit/s. Every frame is 417 bytes with zeroed side info and main
// data, which decodes to silence.
func BuildMP3(n int) []byte {
	const frameSize = 144 * 128000 / 44100
	frame := make([]byte, frameSize)
	// sync, MPEG-1, layer III, no CRC | 128 kbit/s, 44.1 kHz | mono
	copy(frame, []byte{0xFF, 0xFB, 0x90, 0xC0})

	out := make([]byte, 0, n*frameSize)
	for i := 0; i < n; i++ {
		out = append(out, frame...)
	}
	return out
}
