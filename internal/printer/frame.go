package printer

import (
	"fmt"

	"labelpress/internal/raster"
)

// maxFrameRows caps the row count of a single GS v 0 block; taller rasters
// are split into consecutive blocks.
const maxFrameRows = 255

// Frame encodes the bitmap as ESC/POS raster data: an initialize sequence
// followed by one or more "GS v 0" blocks carrying the packed rows. The
// bitmap's own packed representation is the wire format, so the bytes sent
// are exactly the preview pixels.
func Frame(bm *raster.Bitmap, opts Options) ([]byte, error) {
	if bm == nil || bm.Width() == 0 || bm.Height() == 0 {
		return nil, fmt.Errorf("printer: empty raster")
	}
	if bm.Width() > HeadWidth {
		return nil, fmt.Errorf("printer: raster width %d exceeds head width %d", bm.Width(), HeadWidth)
	}

	stride := bm.Stride()
	data := bm.Data()

	out := make([]byte, 0, len(data)+64)
	out = append(out, 0x1B, 0x40) // ESC @: initialize

	for row := 0; row < bm.Height(); row += maxFrameRows {
		rows := bm.Height() - row
		if rows > maxFrameRows {
			rows = maxFrameRows
		}
		out = append(out, 0x1D, 0x76, 0x30, 0x00, // GS v 0, normal density
			byte(stride&0xFF), byte(stride>>8),
			byte(rows&0xFF), byte(rows>>8))
		out = append(out, data[row*stride:(row+rows)*stride]...)
	}

	for i := 0; i < opts.FeedLines; i++ {
		out = append(out, 0x0A)
	}
	return out, nil
}
