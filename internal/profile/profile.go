// Package profile defines the closed set of canonical profile attributes
// and the personal data that can be written into application forms.
package profile

import "strconv"

// Attribute is a canonical profile attribute name. The set of attributes is
// fixed at build time; form fields are matched against it, never against
// free-form keys.
type Attribute string

const (
	FirstName         Attribute = "first_name"
	LastName          Attribute = "last_name"
	Email             Attribute = "email"
	Phone             Attribute = "phone"
	AddressLine1      Attribute = "address_line1"
	AddressLine2      Attribute = "address_line2"
	City              Attribute = "city"
	State             Attribute = "state"
	ZipCode           Attribute = "zip_code"
	Country           Attribute = "country"
	LinkedinURL       Attribute = "linkedin_url"
	GithubURL         Attribute = "github_url"
	PortfolioURL      Attribute = "portfolio_url"
	CurrentCompany    Attribute = "current_company"
	CurrentTitle      Attribute = "current_title"
	YearsOfExperience Attribute = "years_of_experience"
	EducationLevel    Attribute = "education_level"
	University        Attribute = "university"
	Major             Attribute = "major"
	GraduationYear    Attribute = "graduation_year"
	GPA               Attribute = "gpa"
)

// None marks the absence of a match.
const None Attribute = ""

// Values maps attributes to the concrete strings that go into form fields.
type Values map[Attribute]string

// Profile holds the personal information used for auto-fill. Field names
// mirror the attribute constants one to one.
type Profile struct {
	FirstName string `json:"first_name,omitempty" mapstructure:"first_name"`
	LastName  string `json:"last_name,omitempty" mapstructure:"last_name"`
	Email     string `json:"email,omitempty" mapstructure:"email"`
	Phone     string `json:"phone,omitempty" mapstructure:"phone"`

	AddressLine1 string `json:"address_line1,omitempty" mapstructure:"address_line1"`
	AddressLine2 string `json:"address_line2,omitempty" mapstructure:"address_line2"`
	City         string `json:"city,omitempty" mapstructure:"city"`
	State        string `json:"state,omitempty" mapstructure:"state"`
	ZipCode      string `json:"zip_code,omitempty" mapstructure:"zip_code"`
	Country      string `json:"country,omitempty" mapstructure:"country"`

	LinkedinURL       string `json:"linkedin_url,omitempty" mapstructure:"linkedin_url"`
	GithubURL         string `json:"github_url,omitempty" mapstructure:"github_url"`
	PortfolioURL      string `json:"portfolio_url,omitempty" mapstructure:"portfolio_url"`
	CurrentCompany    string `json:"current_company,omitempty" mapstructure:"current_company"`
	CurrentTitle      string `json:"current_title,omitempty" mapstructure:"current_title"`
	YearsOfExperience int    `json:"years_of_experience,omitempty" mapstructure:"years_of_experience"`

	EducationLevel string  `json:"education_level,omitempty" mapstructure:"education_level"`
	University     string  `json:"university,omitempty" mapstructure:"university"`
	Major          string  `json:"major,omitempty" mapstructure:"major"`
	GraduationYear int     `json:"graduation_year,omitempty" mapstructure:"graduation_year"`
	GPA            float64 `json:"gpa,omitempty" mapstructure:"gpa"`
}

// Values returns the attribute/value mapping for all populated fields.
// Zero-valued fields are left out so the filler never writes empty strings.
func (p *Profile) Values() Values {
	if p == nil {
		return Values{}
	}

	values := Values{}

	set := func(attr Attribute, v string) {
		if v != "" {
			values[attr] = v
		}
	}

	set(FirstName, p.FirstName)
	set(LastName, p.LastName)
	set(Email, p.Email)
	set(Phone, p.Phone)
	set(AddressLine1, p.AddressLine1)
	set(AddressLine2, p.AddressLine2)
	set(City, p.City)
	set(State, p.State)
	set(ZipCode, p.ZipCode)
	set(Country, p.Country)
	set(LinkedinURL, p.LinkedinURL)
	set(GithubURL, p.GithubURL)
	set(PortfolioURL, p.PortfolioURL)
	set(CurrentCompany, p.CurrentCompany)
	set(CurrentTitle, p.CurrentTitle)
	set(EducationLevel, p.EducationLevel)
	set(University, p.University)
	set(Major, p.Major)

	if p.YearsOfExperience > 0 {
		values[YearsOfExperience] = strconv.Itoa(p.YearsOfExperience)
	}
	if p.GraduationYear > 0 {
		values[GraduationYear] = strconv.Itoa(p.GraduationYear)
	}
	if p.GPA > 0 {
		values[GPA] = strconv.FormatFloat(p.GPA, 'f', -1, 64)
	}

	return values
}
