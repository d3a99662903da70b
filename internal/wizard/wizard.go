package wizard

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Step is one screen in the linear sign-up sequence.
type Step int

const (
	StepLanguage Step = iota
	StepProfile
	StepReason
	StepPhotos
	StepFinal
)

const (
	MinNameLen = 2
	MaxNameLen = 15
	MinBioLen  = 3
	MaxBioLen  = 100
	MinImages  = 2
	MaxImages  = 6
	YearMin    = 1900
)

var stepNames = []string{"language", "profile", "reason", "photos", "final"}

func (s Step) String() string {
	if s < StepLanguage || s > StepFinal {
		return "unknown"
	}
	return stepNames[s]
}

// DOB is the day/month/year triplet exactly as the user typed it.
type DOB struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

// ImageItem references an already-uploaded photo's variants.
type ImageItem struct {
	ID    string `json:"id"`
	URL   string `json:"url"`
	URLSm string `json:"url_sm,omitempty"`
	URLMd string `json:"url_md,omitempty"`
	URLLg string `json:"url_lg,omitempty"`
}

// Draft is the accumulated sign-up state, held server-side until the
// final submit.
type Draft struct {
	Step       Step        `json:"step"`
	Language   *string     `json:"language"`
	Gender     *string     `json:"gender"`
	Name       string      `json:"name"`
	Bio        string      `json:"bio"`
	DOB        DOB         `json:"dob"`
	Reason     *string     `json:"reason"`
	Images     []ImageItem `json:"images"`
	ReferredBy *string     `json:"referred_by,omitempty"`
}

func NewDraft() *Draft {
	return &Draft{Step: StepLanguage, Images: []ImageItem{}}
}

// StepValid reports whether the given step's validity predicate holds
// for the current draft. The final step is always passable.
func (d *Draft) StepValid(s Step) bool {
	switch s {
	case StepLanguage:
		return d.Language != nil && *d.Language != ""
	case StepProfile:
		return d.validName() && d.validBio() && d.validDOB() && d.validGender()
	case StepReason:
		return d.Reason != nil && *d.Reason != ""
	case StepPhotos:
		return len(d.Images) >= MinImages && len(d.Images) <= MaxImages
	case StepFinal:
		return true
	}
	return false
}

// Advance moves to the next step when the current one is valid.
// An invalid step leaves the draft unchanged; that is not an error.
// Returns true when the step actually changed.
func (d *Draft) Advance() bool {
	if d.Step >= StepFinal {
		return false
	}
	if !d.StepValid(d.Step) {
		return false
	}
	d.Step++
	return true
}

// Retreat steps back one screen; a no-op on the first step.
func (d *Draft) Retreat() bool {
	if d.Step <= StepLanguage {
		return false
	}
	d.Step--
	return true
}

// AtFinal reports whether the draft has reached the submission step.
func (d *Draft) AtFinal() bool {
	return d.Step == StepFinal
}

// FieldErrors returns machine-readable reasons for every failing field
// of the profile and photo steps; empty when the whole draft is valid.
func (d *Draft) FieldErrors() map[string]string {
	errs := map[string]string{}
	if !d.StepValid(StepLanguage) {
		errs["language"] = "language is required"
	}
	if !d.validName() {
		errs["name"] = "name must be 2-15 characters"
	}
	if !d.validBio() {
		errs["bio"] = "bio must be 3-100 characters"
	}
	if !d.validDOB() {
		errs["dob"] = "date of birth must be a valid calendar date"
	}
	if !d.validGender() {
		errs["gender"] = "gender is required"
	}
	if !d.StepValid(StepReason) {
		errs["reason"] = "looking_for is required"
	}
	if !d.StepValid(StepPhotos) {
		errs["images"] = "between 2 and 6 photos are required"
	}
	return errs
}

// Lengths are measured in characters, not bytes, so non-Latin scripts
// get the same bounds.
func (d *Draft) validName() bool {
	n := utf8.RuneCountInString(strings.TrimSpace(d.Name))
	return n >= MinNameLen && n <= MaxNameLen
}

func (d *Draft) validBio() bool {
	n := utf8.RuneCountInString(strings.TrimSpace(d.Bio))
	return n >= MinBioLen && n <= MaxBioLen
}

func (d *Draft) validGender() bool {
	return d.Gender != nil && (*d.Gender == "male" || *d.Gender == "female")
}

func (d *Draft) validDOB() bool {
	_, ok := d.BirthDate()
	return ok
}

// BirthDate converts the triplet into a real calendar date. Rolled-over
// dates (29 February of a non-leap year, 31 April, ...) are rejected.
func (d *Draft) BirthDate() (time.Time, bool) {
	day, err1 := strconv.Atoi(d.DOB.Day)
	month, err2 := strconv.Atoi(d.DOB.Month)
	year, err3 := strconv.Atoi(d.DOB.Year)
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if year < YearMin || year > time.Now().Year() || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || t.Month() != time.Month(month) || t.Day() != day {
		return time.Time{}, false
	}
	return t, true
}
