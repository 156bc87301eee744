package importer

const (
	ModeStrict  = "strict"
	ModePartial = "partial"
)

// Row is one data line of the user CSV. Column names match the csv tags,
// case-insensitively.
type Row struct {
	Line            int    `csv:"-"`
	Name            string `csv:"name" validate:"required,min=2,max=255"`
	Email           string `csv:"email" validate:"required_if=UserType office,omitempty,email,max=255"`
	Username        string `csv:"username" validate:"required_if=UserType operational,omitempty,min=3,max=100"`
	PersonID        string `csv:"personID" validate:"required,max=100"`
	Role            string `csv:"role" validate:"required,oneof=employee manager hr"`
	UserType        string `csv:"userType" validate:"oneof=office operational"`
	Department      string `csv:"department" validate:"max=150"`
	Position        string `csv:"position" validate:"max=150"`
	ManagerPersonID string `csv:"managerPersonID" validate:"max=100"`
	Password        string `csv:"password" validate:"omitempty,min=8,max=72"`
}

type RowError struct {
	Line     int    `json:"line"`
	PersonID string `json:"personId,omitempty"`
	Field    string `json:"field,omitempty"`
	Message  string `json:"message"`
}

type ImportedUser struct {
	Line              int    `json:"line"`
	ID                string `json:"id"`
	PersonID          string `json:"personId"`
	Name              string `json:"name"`
	TemporaryPassword string `json:"temporaryPassword,omitempty"`
}

type Result struct {
	Mode     string         `json:"mode"`
	Total    int            `json:"total"`
	Imported int            `json:"imported"`
	Failed   int            `json:"failed"`
	Users    []ImportedUser `json:"users"`
	Errors   []RowError     `json:"errors"`
}
