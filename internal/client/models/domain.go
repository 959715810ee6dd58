package models

type RiskTemplate struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Version     int    `json:"version,omitempty"`
}

type TemplateSection struct {
	ID         string `json:"id"`
	TemplateID string `json:"templateId,omitempty"`
	Name       string `json:"name"`
	Order      int    `json:"order,omitempty"`
}

type SectionCategory struct {
	ID        string `json:"id"`
	SectionID string `json:"sectionId,omitempty"`
	Name      string `json:"name"`
}

type TemplateItem struct {
	ID         string `json:"id"`
	CategoryID string `json:"categoryId,omitempty"`
	Name       string `json:"name"`
	Kind       string `json:"kind,omitempty"`
}

type Appointment struct {
	ID         string `json:"id"`
	Status     string `json:"status,omitempty"`
	Surveyor   string `json:"surveyor,omitempty"`
	Address    string `json:"address,omitempty"`
	StartDate  string `json:"startDate,omitempty"`
	TemplateID string `json:"templateId,omitempty"`
}

// Survey is the summary view of a submitted survey. The full record travels
// as raw JSON through the pending queue.
type Survey struct {
	ID            string   `json:"id,omitempty"`
	AppointmentID string   `json:"appointmentId,omitempty"`
	TemplateID    string   `json:"templateId,omitempty"`
	Status        string   `json:"status,omitempty"`
	NeedsSync     bool     `json:"needsSync"`
	AttachmentIDs []string `json:"attachmentIds,omitempty"`
}

// PageRequest selects one page of a paginated collection.
type PageRequest struct {
	Page          int
	PageSize      int
	Status        string
	Surveyor      string
	StartDateFrom string
	StartDateTo   string
}

type Pagination struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"pageSize"`
	TotalItems int  `json:"totalItems"`
	TotalPages int  `json:"totalPages"`
	HasMore    bool `json:"hasMore"`
}

type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
