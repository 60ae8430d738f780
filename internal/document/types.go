// types.go - Document type labels and field names

package document

// DocumentType is the label assigned to a block of recognized text.
type DocumentType string

const (
	PANCard     DocumentType = "PAN Card"
	AadhaarCard DocumentType = "Aadhaar Card"
	Passport    DocumentType = "Passport"
	GeneralID   DocumentType = "General ID"
)

// AllTypes lists the closed set of document types.
var AllTypes = []DocumentType{PANCard, AadhaarCard, Passport, GeneralID}

// Valid reports whether t is one of the known document types.
func (t DocumentType) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

func (t DocumentType) String() string {
	return string(t)
}

// Field names produced by the extractors
const (
	FieldIDNumber = "ID Number"
	FieldDOB      = "DOB"
	FieldName     = "Name"
	FieldGender   = "Gender"
)

// Fixed values written by the extractors
const (
	// ManualCheckNeeded marks a field that OCR text alone cannot supply reliably.
	ManualCheckNeeded = "Manual Check Needed"

	// NotFound is the General ID fallback. It is a found value, unlike Absent().
	NotFound = "Not Found"

	GenderFemale = "Female"
	GenderMale   = "Male"
)
