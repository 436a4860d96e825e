package model

// Classification tags a question with a curriculum subject and topic.
type Classification struct {
	Subject       string `json:"subject"`
	Topic         string `json:"topic"`
	IsEducational bool   `json:"isEducational"`
}

// DefaultClassification is used whenever classification fails and the policy is fail-open.
func DefaultClassification() Classification {
	return Classification{Subject: "General", Topic: "General", IsEducational: true}
}
