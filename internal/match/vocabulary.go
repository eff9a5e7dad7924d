package match

import "github.com/applymate/applymate/internal/profile"

// Entry maps one canonical profile attribute to its natural-language
// surface forms, lowercase, most common first.
type Entry struct {
	Attribute profile.Attribute
	Phrases   []string
}

// DefaultVocabulary returns the built-in vocabulary. The slice order is the
// documented tie-break: when several entries match a field equally well,
// the one declared first wins.
func DefaultVocabulary() []Entry {
	return []Entry{
		{profile.FirstName, []string{
			"first name", "firstname", "given name", "fname", "forename",
			"first", "name first", "first_name",
		}},
		{profile.LastName, []string{
			"last name", "lastname", "surname", "family name", "lname",
			"last", "name last", "last_name",
		}},
		{profile.Email, []string{
			"email", "e-mail", "email address", "e-mail address",
			"contact email", "your email", "mail",
		}},
		{profile.Phone, []string{
			"phone", "telephone", "phone number", "tel", "mobile",
			"cell", "contact number", "mobile number", "cell phone",
		}},
		{profile.AddressLine1, []string{
			"address", "street address", "address line 1", "address 1",
			"street", "address line1", "street 1",
		}},
		{profile.AddressLine2, []string{
			"address line 2", "address 2", "apartment", "apt", "suite",
			"unit", "address line2", "apt/suite",
		}},
		{profile.City, []string{
			"city", "town", "municipality",
		}},
		{profile.State, []string{
			"state", "province", "region", "state/province",
		}},
		{profile.ZipCode, []string{
			"zip", "zip code", "postal code", "postcode", "postal",
			"zipcode", "zip/postal",
		}},
		{profile.Country, []string{
			"country", "nation",
		}},
		{profile.LinkedinURL, []string{
			"linkedin", "linkedin url", "linkedin profile", "linkedin.com",
		}},
		{profile.GithubURL, []string{
			"github", "github url", "github profile", "github.com",
			"github username",
		}},
		{profile.PortfolioURL, []string{
			"portfolio", "website", "personal website", "portfolio url",
			"personal site", "web site",
		}},
		{profile.CurrentCompany, []string{
			"current company", "employer", "company", "current employer",
			"organization",
		}},
		{profile.CurrentTitle, []string{
			"job title", "title", "current title", "position",
			"current position", "role", "current role",
		}},
		{profile.YearsOfExperience, []string{
			"years of experience", "experience", "years experience",
			"work experience", "total experience",
		}},
		{profile.EducationLevel, []string{
			"education level", "degree", "highest degree", "education",
			"level of education", "qualification",
		}},
		{profile.University, []string{
			"university", "college", "school", "institution",
			"educational institution",
		}},
		{profile.Major, []string{
			"major", "field of study", "degree major", "course",
			"specialization", "subject",
		}},
		{profile.GraduationYear, []string{
			"graduation year", "year of graduation", "grad year",
			"graduated", "completion year",
		}},
		{profile.GPA, []string{
			"gpa", "grade point average", "cgpa", "grades",
		}},
	}
}
