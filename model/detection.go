package model

import "fmt"

// Class identifies the detector class of a bounding box. The set is closed:
// the serializer and validator handle every case exhaustively.
type Class int

const (
	ClassUnknown Class = iota
	ClassQuestionBlock
	ClassStatementText
	ClassStatementImage
	ClassAlternativeText
	ClassAlternativeImage
)

// String returns the detector label for the class
func (c Class) String() string {
	switch c {
	case ClassQuestionBlock:
		return "question_block"
	case ClassStatementText:
		return "statement_text"
	case ClassStatementImage:
		return "statement_image"
	case ClassAlternativeText:
		return "alternative_text"
	case ClassAlternativeImage:
		return "alternative_image"
	default:
		return "unknown"
	}
}

// ParseClass parses a detector label into a Class
func ParseClass(s string) (Class, error) {
	switch s {
	case "question_block":
		return ClassQuestionBlock, nil
	case "statement_text":
		return ClassStatementText, nil
	case "statement_image":
		return ClassStatementImage, nil
	case "alternative_text":
		return ClassAlternativeText, nil
	case "alternative_image":
		return ClassAlternativeImage, nil
	default:
		return ClassUnknown, fmt.Errorf("unknown detection class %q", s)
	}
}

// ClassFromID maps a numeric detector class identifier to a Class. The
// numbering follows the dataset convention: 0 question_block,
// 1 statement_text, 2 statement_image, 3 alternative_text,
// 4 alternative_image.
func ClassFromID(id int) (Class, error) {
	switch id {
	case 0:
		return ClassQuestionBlock, nil
	case 1:
		return ClassStatementText, nil
	case 2:
		return ClassStatementImage, nil
	case 3:
		return ClassAlternativeText, nil
	case 4:
		return ClassAlternativeImage, nil
	default:
		return ClassUnknown, fmt.Errorf("unknown detection class id %d", id)
	}
}

// IsLeaf reports whether the class is one of the four leaf classes that can
// appear as children of a question block.
func (c Class) IsLeaf() bool {
	switch c {
	case ClassStatementText, ClassStatementImage, ClassAlternativeText, ClassAlternativeImage:
		return true
	default:
		return false
	}
}

// IsImage reports whether the class carries raster content
func (c Class) IsImage() bool {
	return c == ClassStatementImage || c == ClassAlternativeImage
}

// IsAlternative reports whether the class belongs to the alternative group
func (c Class) IsAlternative() bool {
	return c == ClassAlternativeText || c == ClassAlternativeImage
}

// Detection is a single classified bounding box on one page, in absolute
// page coordinates. Detections are immutable once produced by the
// normalizer; downstream stages copy rather than mutate.
type Detection struct {
	Page       int     // 1-indexed page number
	Class      Class   // detector class
	BBox       BBox    // absolute page coordinates, top-left origin
	Confidence float64 // detector confidence in [0, 1]
}
