package extractor

// ProcessData is the field bundle produced by extracting one document.
// Number is empty when no case number could be located anywhere in the
// document; callers must check it before persisting.
type ProcessData struct {
	Number  string      `json:"process_number"`
	Class   string      `json:"process_class"`
	Subject string      `json:"subject"`
	Judge   string      `json:"judge"`
	Parties []PartyData `json:"parties"`
}

// PartyData is one litigant extracted from a document.
type PartyData struct {
	Name     string   `json:"name"`
	Document string   `json:"document"` // CPF or CNPJ, may be empty
	Category Category `json:"category"`
}

// NotInformed is the placeholder used when a field could not be located.
const NotInformed = "Não informado"
