// internal/models/profile.go
package models

// ProfileAnalysis is the normalized view of a user profile produced by the
// profile analysis stage. Numeric fields are pointers: nil means the fact is
// absent, never NaN or a sentinel zero.
type ProfileAnalysis struct {
	UserID    string `json:"userId"`
	SessionID string `json:"sessionId,omitempty"`

	Age                    *float64 `json:"age,omitempty"`
	HighestEducationLevel  *int     `json:"highestEducationLevel,omitempty"` // ordinal 1-8
	EnglishCLB             *int     `json:"englishClb,omitempty"`            // 0-12
	FrenchCLB              *int     `json:"frenchClb,omitempty"`             // 0-12
	TotalYearsOfExperience *float64 `json:"totalYearsOfExperience,omitempty"`
	LiquidAssets           *float64 `json:"liquidAssets,omitempty"`

	HasJobOffer           bool `json:"hasJobOffer"`
	HasBusinessExperience bool `json:"hasBusinessExperience"`
	HasInvestorCapacity   bool `json:"hasInvestorCapacity"`
	IntendsToReside       bool `json:"intendsToReside"`
	HasSupportLetter      bool `json:"hasSupportLetter"`
	HasRelativesAbroad    bool `json:"hasRelativesAbroad"`

	HasSpouse  bool `json:"hasSpouse"`
	Dependents int  `json:"dependents"`

	DestinationCountries []string `json:"destinationCountries,omitempty"`

	// OverallScore is the coarse profile-strength score used when a program
	// publishes no eligibility criteria.
	OverallScore float64 `json:"overallScore"`
}

// FamilySize counts the applicant plus spouse and dependents, the unit used by
// settlement-fund tiers.
func (p *ProfileAnalysis) FamilySize() int {
	size := 1 + p.Dependents
	if p.HasSpouse {
		size++
	}
	return size
}
