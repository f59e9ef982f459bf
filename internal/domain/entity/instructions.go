package entity

type InstructionStep struct {
	Step        int    `json:"step"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Details     string `json:"details"`
}

type ManualInstructions struct {
	BrokerName    string            `json:"broker_name"`
	Difficulty    string            `json:"difficulty"`
	EstimatedTime string            `json:"estimated_time"`
	SuccessRate   string            `json:"success_rate"`
	Steps         []InstructionStep `json:"steps"`
	Tips          []string          `json:"tips"`
	ContactInfo   map[string]string `json:"contact_info"`
}

type EmailTemplate struct {
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Recipient string   `json:"recipient"`
	CC        []string `json:"cc_emails"`
}

type ChecklistItem struct {
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

type BrokerChecklist struct {
	BrokerID       string              `json:"broker_id"`
	BrokerName     string              `json:"broker_name"`
	Website        string              `json:"website"`
	RemovalURL     string              `json:"removal_url"`
	Instructions   *ManualInstructions `json:"instructions"`
	EmailTemplate  *EmailTemplate      `json:"email_template"`
	ChecklistItems []ChecklistItem     `json:"checklist_items"`
}

type RemovalChecklist struct {
	UserName           string            `json:"user_name"`
	TotalManualBrokers int               `json:"total_manual_brokers"`
	EstimatedTotalTime string            `json:"estimated_total_time"`
	Brokers            []BrokerChecklist `json:"brokers"`
}
