// extractor.go - Per-type field extraction procedures

package document

import "strings"

// ExtractFunc pulls the fields of one document type out of recognized text.
type ExtractFunc func(text string) FieldMap

// Extractor dispatches to an ExtractFunc by document type.
// Types without a procedure fall back to the General ID procedure.
type Extractor struct {
	procedures map[DocumentType]ExtractFunc
	fallback   ExtractFunc
}

// DefaultExtractor handles the four built-in document types.
func DefaultExtractor() *Extractor {
	return &Extractor{
		procedures: map[DocumentType]ExtractFunc{
			PANCard:     ExtractPANCard,
			AadhaarCard: ExtractAadhaarCard,
			Passport:    ExtractPassport,
			GeneralID:   ExtractGeneralID,
		},
		fallback: ExtractGeneralID,
	}
}

// WithProcedure returns a copy of e that extracts docType with fn.
func (e *Extractor) WithProcedure(docType DocumentType, fn ExtractFunc) *Extractor {
	procedures := make(map[DocumentType]ExtractFunc, len(e.procedures)+1)
	for t, p := range e.procedures {
		procedures[t] = p
	}
	procedures[docType] = fn
	return &Extractor{procedures: procedures, fallback: e.fallback}
}

// Extract never fails; fields that do not match carry the absent marker
// (or are omitted, for the Aadhaar Gender and DOB fields).
func (e *Extractor) Extract(text string, docType DocumentType) FieldMap {
	if fn, ok := e.procedures[docType]; ok && fn != nil {
		return fn(text)
	}
	return e.fallback(text)
}

// ExtractPANCard reads the account number and birth date. The holder's name
// is not reliably separable from the other printed names, so it is flagged.
func ExtractPANCard(text string) FieldMap {
	fields := NewFieldMap()
	fields.Set(FieldIDNumber, firstMatch(PANPattern, text))
	fields.Set(FieldDOB, firstMatch(DatePattern, text))
	fields.Set(FieldName, Found(ManualCheckNeeded))
	return fields
}

// ExtractAadhaarCard omits Gender and DOB when they are not present
// instead of setting them absent.
func ExtractAadhaarCard(text string) FieldMap {
	fields := NewFieldMap()
	fields.Set(FieldIDNumber, firstMatch(AadhaarPattern, text))

	lower := strings.ToLower(text)
	if strings.Contains(lower, "female") {
		fields.Set(FieldGender, Found(GenderFemale))
	} else if strings.Contains(lower, "male") {
		fields.Set(FieldGender, Found(GenderMale))
	}

	if year, ok := firstSubmatch(YearOfBirthPattern, text, 1); ok {
		fields.Set(FieldDOB, Found(year))
	}
	return fields
}

// ExtractPassport reads the passport number and the first printed date
func ExtractPassport(text string) FieldMap {
	fields := NewFieldMap()
	fields.Set(FieldIDNumber, firstMatch(PassportPattern, text))
	fields.Set(FieldDOB, firstMatch(DatePattern, text))
	return fields
}

// ExtractGeneralID takes the first identifier-shaped token that carries a digit,
// so printed headings like "RANDOM" are skipped, and otherwise the first token.
// This intentionally differs from plain leftmost matching, which would return
// "RANDOM" for "RANDOM CARD\nXYZ98765".
// It falls back to the NotFound sentinel, never to Absent().
func ExtractGeneralID(text string) FieldMap {
	fields := NewFieldMap()
	id := Found(NotFound)
	candidates := GenericIDPattern.FindAllString(text, -1)
	if len(candidates) > 0 {
		id = Found(candidates[0])
		for _, c := range candidates {
			if strings.ContainsAny(c, "0123456789") {
				id = Found(c)
				break
			}
		}
	}
	fields.Set(FieldIDNumber, id)
	return fields
}

var defaultExtractor = DefaultExtractor()

// Extract runs the default procedure for docType.
func Extract(text string, docType DocumentType) FieldMap {
	return defaultExtractor.Extract(text, docType)
}

// Parser pairs a classifier with the extractor for its labels.
type Parser struct {
	Classifier *Classifier
	Extractor  *Extractor
}

// DefaultParser uses the built-in cascade and procedures.
func DefaultParser() *Parser {
	return &Parser{Classifier: defaultClassifier, Extractor: defaultExtractor}
}

// Parse classifies text and extracts the fields for the assigned type.
func (p *Parser) Parse(text string) (DocumentType, FieldMap) {
	docType := p.Classifier.Classify(text)
	return docType, p.Extractor.Extract(text, docType)
}

// Parse classifies and extracts with the defaults.
func Parse(text string) (DocumentType, FieldMap) {
	docType := Classify(text)
	return docType, Extract(text, docType)
}
