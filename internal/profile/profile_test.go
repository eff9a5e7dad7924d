package profile

import "testing"

func TestValuesSkipsEmptyFields(t *testing.T) {
	p := &Profile{
		FirstName: "Jane",
		Email:     "jane@example.com",
		GPA:       3.8,
	}

	values := p.Values()

	if len(values) != 3 {
		t.Fatalf("expected 3 values, got %d: %v", len(values), values)
	}
	if values[FirstName] != "Jane" {
		t.Errorf("unexpected first name: %q", values[FirstName])
	}
	if values[GPA] != "3.8" {
		t.Errorf("unexpected gpa: %q", values[GPA])
	}
	if _, ok := values[LastName]; ok {
		t.Errorf("did not expect a last name value")
	}
}

func TestValuesFormatsNumericFields(t *testing.T) {
	p := &Profile{
		YearsOfExperience: 7,
		GraduationYear:    2019,
	}

	values := p.Values()

	if values[YearsOfExperience] != "7" {
		t.Errorf("unexpected years of experience: %q", values[YearsOfExperience])
	}
	if values[GraduationYear] != "2019" {
		t.Errorf("unexpected graduation year: %q", values[GraduationYear])
	}
}

func TestValuesOnNilProfile(t *testing.T) {
	var p *Profile
	if got := p.Values(); len(got) != 0 {
		t.Fatalf("expected empty values for nil profile, got %v", got)
	}
}
