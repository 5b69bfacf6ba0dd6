// Package hocr exports annotated regions as an hOCR document.
package hocr

import (
	"fmt"
	"image"
	"strings"

	"github.com/lehigh-university-libraries/boxocr/pkg/annotate"
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// FromBoxes builds an hOCR page of the given source size with one ocr_carea
// per box. Boxes must already be in source pixels. Each line of a box's text
// becomes an ocr_line sharing the area's bbox.
func FromBoxes(title string, size image.Point, boxes []annotate.Box) string {
	var sb strings.Builder

	for i, b := range boxes {
		bbox := fmt.Sprintf("bbox %d %d %d %d", b.Left, b.Upper, b.Right, b.Lower)
		fmt.Fprintf(&sb, "<div class='ocr_carea' id='block_1_%d' title='%s'>\n", i+1, bbox)

		if b.Text != "" {
			for j, line := range strings.Split(b.Text, "\n") {
				fmt.Fprintf(&sb, "<span class='ocr_line' id='line_1_%d_%d' title='%s'>%s</span>\n",
					i+1, j+1, bbox, textEscaper.Replace(line))
			}
		}

		sb.WriteString("</div>\n")
	}

	return WrapInHOCRDocument(title, size, strings.TrimSuffix(sb.String(), "\n"))
}

// WrapInHOCRDocument wraps content in a complete hOCR HTML document
func WrapInHOCRDocument(title string, size image.Point, content string) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Transitional//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-transitional.dtd">
<html xmlns="http://www.w3.org/1999/xhtml" xml:lang="en" lang="en">
<head>
<title>%s</title>
<meta http-equiv="Content-Type" content="text/html;charset=utf-8" />
<meta name='ocr-system' content='boxocr' />
<meta name='ocr-capabilities' content='ocr_page ocr_carea ocr_line' />
</head>
<body>
<div class='ocr_page' id='page_1' title='bbox 0 0 %d %d'>
%s
</div>
</body>
</html>`, textEscaper.Replace(title), size.X, size.Y, content)
}
