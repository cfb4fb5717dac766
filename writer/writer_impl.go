package writer

import (
	"bytes"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/wudi/gridpdf/doc"
	"github.com/wudi/gridpdf/ir"
)

type impl struct{}

func (w *impl) Write(ctx context.Context, d *doc.Document, out io.Writer, cfg Config) error {
	if len(d.Pages) == 0 {
		return fmt.Errorf("document has no pages")
	}

	objects := make(map[ir.ObjectRef]ir.Object)
	objNum := 1
	next := func() ir.ObjectRef {
		ref := ir.ObjectRef{Num: objNum}
		objNum++
		return ref
	}

	catalogRef := next()
	pagesRef := next()
	infoRef := next()

	// ICC profile streams are shared across images that carry identical
	// profile bytes.
	profileRefs := make(map[string]ir.ObjectRef)

	pageRefs := make([]ir.ObjectRef, 0, len(d.Pages))
	for _, p := range d.Pages {
		if err := ctx.Err(); err != nil {
			return err
		}

		contentData := encodeContents(p.Contents)
		contentRef := next()
		contentDict := ir.Dict()
		if !cfg.NoCompression {
			contentData = deflate(contentData)
			contentDict.Set("Filter", ir.Name("FlateDecode"))
		}
		objects[contentRef] = ir.Stream(contentDict, contentData)

		xobjRefs := make(map[string]ir.ObjectRef)
		for _, name := range sortedXObjectNames(p.XObjects) {
			img := p.XObjects[name]
			ref := next()
			obj, err := imageStream(img, cfg, profileRefs, next, objects)
			if err != nil {
				return fmt.Errorf("image %s: %w", name, err)
			}
			objects[ref] = obj
			xobjRefs[name] = ref
		}

		pageRef := next()
		pageRefs = append(pageRefs, pageRef)
		pageDict := ir.Dict()
		pageDict.Set("Type", ir.Name("Page"))
		pageDict.Set("Parent", ir.RefObj{R: pagesRef})
		pageDict.Set("MediaBox", ir.Array(
			ir.Float(p.MediaBox.LLX), ir.Float(p.MediaBox.LLY),
			ir.Float(p.MediaBox.URX), ir.Float(p.MediaBox.URY),
		))
		pageDict.Set("Contents", ir.RefObj{R: contentRef})

		resDict := ir.Dict()
		if len(xobjRefs) > 0 {
			xoDict := ir.Dict()
			for _, name := range sortedKeys(xobjRefs) {
				xoDict.Set(name, ir.RefObj{R: xobjRefs[name]})
			}
			resDict.Set("XObject", xoDict)
		}
		pageDict.Set("Resources", resDict)
		objects[pageRef] = pageDict
	}

	kids := ir.Array()
	for _, r := range pageRefs {
		kids.Append(ir.RefObj{R: r})
	}
	pagesDict := ir.Dict()
	pagesDict.Set("Type", ir.Name("Pages"))
	pagesDict.Set("Count", ir.Int(int64(len(pageRefs))))
	pagesDict.Set("Kids", kids)
	objects[pagesRef] = pagesDict

	catalogDict := ir.Dict()
	catalogDict.Set("Type", ir.Name("Catalog"))
	catalogDict.Set("Pages", ir.RefObj{R: pagesRef})
	objects[catalogRef] = catalogDict

	objects[infoRef] = infoDict(d.Info)

	return serialize(out, objects, catalogRef, infoRef)
}

func infoDict(info doc.Info) *ir.DictObj {
	d := ir.Dict()
	if info.Title != "" {
		d.Set("Title", ir.Str([]byte(info.Title)))
	}
	if info.Producer != "" {
		d.Set("Producer", ir.Str([]byte(info.Producer)))
	}
	if info.Creator != "" {
		d.Set("Creator", ir.Str([]byte(info.Creator)))
	}
	if info.ColorMode != "" {
		d.Set("ColorMode", ir.Str([]byte(info.ColorMode)))
	}
	return d
}

func imageStream(img *doc.Image, cfg Config, profileRefs map[string]ir.ObjectRef,
	next func() ir.ObjectRef, objects map[ir.ObjectRef]ir.Object) (ir.Object, error) {

	dict := ir.Dict()
	dict.Set("Type", ir.Name("XObject"))
	dict.Set("Subtype", ir.Name("Image"))
	dict.Set("Width", ir.Int(int64(img.Width)))
	dict.Set("Height", ir.Int(int64(img.Height)))
	dict.Set("BitsPerComponent", ir.Int(int64(img.BitsPerComponent)))
	if img.Interpolate {
		dict.Set("Interpolate", ir.Bool(true))
	}

	switch cs := img.ColorSpace.(type) {
	case doc.DeviceCMYK:
		dict.Set("ColorSpace", ir.Name("DeviceCMYK"))
	case doc.ICCBased:
		key := string(cs.Profile)
		ref, ok := profileRefs[key]
		if !ok {
			ref = next()
			profDict := ir.Dict()
			profDict.Set("N", ir.Int(int64(cs.N)))
			profDict.Set("Alternate", ir.Name("DeviceCMYK"))
			data := cs.Profile
			if !cfg.NoCompression {
				data = deflate(data)
				profDict.Set("Filter", ir.Name("FlateDecode"))
			}
			objects[ref] = ir.Stream(profDict, data)
			profileRefs[key] = ref
		}
		dict.Set("ColorSpace", ir.Array(ir.Name("ICCBased"), ir.RefObj{R: ref}))
	default:
		return nil, fmt.Errorf("unsupported color space %T", img.ColorSpace)
	}

	want := img.Width * img.Height * img.ColorSpace.Components()
	if len(img.Data) != want {
		return nil, fmt.Errorf("sample data is %d bytes, expected %d", len(img.Data), want)
	}

	data := img.Data
	if !cfg.NoCompression {
		data = deflate(data)
		dict.Set("Filter", ir.Name("FlateDecode"))
	}
	return ir.Stream(dict, data), nil
}

func encodeContents(contents []doc.ContentStream) []byte {
	var buf bytes.Buffer
	for _, cs := range contents {
		for _, op := range cs.Operations {
			for _, operand := range op.Operands {
				switch v := operand.(type) {
				case doc.NumberOperand:
					buf.WriteString(fmtNum(v.Value))
				case doc.NameOperand:
					buf.WriteString("/" + v.Value)
				}
				buf.WriteByte(' ')
			}
			buf.WriteString(op.Operator)
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

func serialize(out io.Writer, objects map[ir.ObjectRef]ir.Object, catalogRef, infoRef ir.ObjectRef) error {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xE2\xE3\xCF\xD3\n")

	ordered := make([]ir.ObjectRef, 0, len(objects))
	for ref := range objects {
		ordered = append(ordered, ref)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Num < ordered[j].Num })

	offsets := make(map[int]int64)
	for _, ref := range ordered {
		offsets[ref.Num] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d %d obj\n", ref.Num, ref.Gen)
		buf.Write(serializePrimitive(objects[ref]))
		buf.WriteString("\nendobj\n")
	}

	xrefOffset := buf.Len()
	maxObjNum := ordered[len(ordered)-1].Num
	fmt.Fprintf(&buf, "xref\n0 %d\n", maxObjNum+1)
	buf.WriteString("0000000000 65535 f \n")
	for i := 1; i <= maxObjNum; i++ {
		if off, ok := offsets[i]; ok {
			fmt.Fprintf(&buf, "%010d 00000 n \n", off)
		} else {
			buf.WriteString("0000000000 65535 f \n")
		}
	}

	fmt.Fprintf(&buf, "trailer\n<</Size %d /Root %d 0 R /Info %d 0 R>>\nstartxref\n%d\n%%%%EOF\n",
		maxObjNum+1, catalogRef.Num, infoRef.Num, xrefOffset)

	_, err := out.Write(buf.Bytes())
	return err
}

func serializePrimitive(o ir.Object) []byte {
	switch v := o.(type) {
	case ir.NameObj:
		return []byte("/" + v.Value())
	case ir.NumberObj:
		if v.IsInteger() {
			return []byte(strconv.FormatInt(v.Int(), 10))
		}
		return []byte(fmtNum(v.Float()))
	case ir.BoolObj:
		if v.Value() {
			return []byte("true")
		}
		return []byte("false")
	case ir.StringObj:
		return []byte("(" + escapeString(v.Value()) + ")")
	case *ir.ArrayObj:
		var b bytes.Buffer
		b.WriteByte('[')
		for i, it := range v.Items {
			if i > 0 {
				b.WriteByte(' ')
			}
			b.Write(serializePrimitive(it))
		}
		b.WriteByte(']')
		return b.Bytes()
	case *ir.DictObj:
		var b bytes.Buffer
		b.WriteString("<<")
		keys := make([]string, 0, len(v.KV))
		for k := range v.KV {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("/" + k + " ")
			b.Write(serializePrimitive(v.KV[k]))
		}
		b.WriteString(">>")
		return b.Bytes()
	case *ir.StreamObj:
		var b bytes.Buffer
		b.Write(serializePrimitive(v.Dict))
		b.WriteString("stream\n")
		b.Write(v.Data)
		b.WriteString("\nendstream")
		return b.Bytes()
	case ir.RefObj:
		return []byte(v.Ref().String())
	default:
		return []byte("null")
	}
}

func escapeString(s []byte) string {
	var b bytes.Buffer
	for _, c := range s {
		switch c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// fmtNum renders a PDF real without exponent notation.
func fmtNum(v float64) string {
	s := strconv.FormatFloat(v, 'f', 4, 64)
	s = trimTrailingZeros(s)
	return s
}

func trimTrailingZeros(s string) string {
	if !bytes.ContainsRune([]byte(s), '.') {
		return s
	}
	i := len(s)
	for i > 0 && s[i-1] == '0' {
		i--
	}
	if i > 0 && s[i-1] == '.' {
		i--
	}
	return s[:i]
}

func deflate(data []byte) []byte {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(data)
	zw.Close()
	return buf.Bytes()
}

func sortedXObjectNames(m map[string]*doc.Image) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func sortedKeys(m map[string]ir.ObjectRef) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
