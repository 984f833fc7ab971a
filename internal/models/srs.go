package models

// SRSDocument represents the structured requirements specification
// produced by the SRS formatting prompt
type SRSDocument struct {
	Introduction       SRSIntroduction       `json:"introduction"`
	OverallDescription SRSOverallDescription `json:"overallDescription"`
	SystemFeatures     []SRSFeature          `json:"systemFeatures"`
	NonFunctional      SRSNonFunctional      `json:"nonFunctionalRequirements"`
	ExternalInterfaces SRSExternalInterfaces `json:"externalInterfaces"`
	Constraints        []string              `json:"constraints"`
}

// SRSIntroduction represents section 1 of the document
type SRSIntroduction struct {
	Purpose string `json:"purpose"`
	Scope   string `json:"scope"`
}

// SRSOverallDescription represents section 2 of the document
type SRSOverallDescription struct {
	ProductPerspective  string `json:"productPerspective"`
	UserCharacteristics string `json:"userCharacteristics"`
}

// SRSFeature represents one system feature
type SRSFeature struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Inputs      string `json:"inputs,omitempty"`
	Outputs     string `json:"outputs,omitempty"`
	Behavior    string `json:"behavior,omitempty"`
}

// SRSNonFunctional represents the bucketed non-functional requirements
type SRSNonFunctional struct {
	Performance []string `json:"performance"`
	Security    []string `json:"security"`
	Usability   []string `json:"usability"`
	Reliability []string `json:"reliability"`
	Other       []string `json:"other"`
}

// SRSExternalInterfaces represents section 5 of the document
type SRSExternalInterfaces struct {
	UserInterface string `json:"userInterface"`
	Hardware      string `json:"hardware"`
	Software      string `json:"software"`
	Communication string `json:"communication"`
}
