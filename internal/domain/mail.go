package domain

const (
	MailTypeVetCreated       = "vet_created"
	MailTypeVetRosterChanged = "vet_roster_changed"
)

type MailMessage struct {
	Type string `json:"type"`
	To   string `json:"to"`
	Data any    `json:"data"`
}

type VetMailData struct {
	VetID       int64    `json:"vetID"`
	FullName    string   `json:"fullName"`
	Specialties []string `json:"specialties"`
	Days        []string `json:"days"`
}

func NewVetMailData(v *Vet) VetMailData {
	data := VetMailData{
		VetID:       v.ID,
		FullName:    v.FullName(),
		Specialties: make([]string, 0, len(v.Specialties)),
		Days:        make([]string, 0, len(v.Days)),
	}
	for _, s := range v.SortedSpecialties() {
		data.Specialties = append(data.Specialties, s.Name)
	}
	for _, d := range v.SortedDays() {
		data.Days = append(data.Days, d.Name)
	}
	return data
}
