package model

import "time"

type Prospect struct {
	ID             int       `db:"id" json:"id"`
	OwnerID        int       `db:"owner_id" json:"owner_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Email          string    `db:"email" json:"email"`
	LinkedinURL    *string   `db:"linkedin_url" json:"linkedin_url"`
	CompanyName    string    `db:"company_name" json:"company_name"`
	CompanyWebsite *string   `db:"company_website" json:"company_website"`
	JobTitle       *string   `db:"job_title" json:"job_title"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Website returns the company website or "".
func (p *Prospect) Website() string {
	if p.CompanyWebsite == nil {
		return ""
	}
	return *p.CompanyWebsite
}
