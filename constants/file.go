package constants

import "strings"

// Files stored per data point.
const (
	GroundTruthFile = "ground-truth.json"
	SegmentsFile    = "segments.json"
	ImageFileStem   = "image"
)

// Dataset splits.
const (
	SplitTrain = "train"
	SplitEval  = "eval"
)

// ImageExtensions holds the image file extensions the OCR step accepts.
var ImageExtensions = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"tif":  {},
	"tiff": {},
	"heic": {},
	"heif": {},
}

// IsHEICExt reports whether ext (normalized) is a HEIC/HEIF container.
func IsHEICExt(ext string) bool {
	return ext == "heic" || ext == "heif"
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// IsImageFile reports whether name carries an accepted image extension.
func IsImageFile(name string) bool {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return false
	}
	_, ok := ImageExtensions[NormalizeExt(name[i:])]
	return ok
}
