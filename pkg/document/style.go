package document

type rgb struct {
	R, G, B int
}

var (
	colorAccent     = rgb{0, 86, 179}    // #0056b3
	colorText       = rgb{33, 37, 41}    // #212529
	colorFooter     = rgb{85, 85, 85}    // #555555
	colorHeaderFill = rgb{242, 242, 242} // #f2f2f2
	colorGrid       = rgb{204, 204, 204} // #cccccc
	colorNotice     = rgb{176, 0, 32}    // #b00020
)

// page geometry in millimetres, A4 portrait
const (
	pageWidth    = 210.0
	pageHeight   = 297.0
	marginSide   = 15.0
	marginTop    = 20.0
	marginBottom = 20.0
	contentWidth = pageWidth - 2*marginSide

	fontFamily = "Helvetica"

	titleSize   = 16.0
	headingSize = 14.0
	bodySize    = 10.0
	tableHead   = 10.0
	tableBody   = 9.0
	footerSize  = 9.0

	lineHeight  = 5.0
	listIndent  = 6.0
	markerWidth = 5.0
	cellPadding = 1.5
	gridWidth   = 0.25 * 25.4 / 72 // 0.25pt
)
