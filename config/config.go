package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/bassamadnan/tripmail/compose"
	"github.com/bassamadnan/tripmail/llm"
	"github.com/bassamadnan/tripmail/mailer"
	"github.com/bassamadnan/tripmail/supplier"
)

// Settings is the on-disk configuration of the dispatcher.
type Settings struct {
	EnquirySheetID  string           `json:"enquirySheetId"`
	EnquiryRange    string           `json:"enquiryRange"`
	SupplierSheetID string           `json:"supplierSheetId"`
	SupplierRange   string           `json:"supplierRange"`
	SupplierColumns supplier.Columns `json:"supplierColumns"`

	StatusColumn    string `json:"statusColumn"`
	TimestampColumn string `json:"timestampColumn"`
	SentMarker      string `json:"sentMarker"`

	Mode         compose.Mode    `json:"mode"`
	ExamplesFile string          `json:"examplesFile"`
	Company      compose.Company `json:"company"`
	LLM          llm.Config      `json:"llm"`

	PollIntervalSeconds int `json:"pollIntervalSeconds"`
	SendDelaySeconds    int `json:"sendDelaySeconds"`

	Mail      Mail      `json:"mail"`
	FollowUp  FollowUp  `json:"followUp"`
	Reminders Reminders `json:"reminders"`
}

// Mail configures outgoing transports. Transports lists one or more of
// "gmail", "smtp", "file" and "redis".
type Mail struct {
	Transports      []string          `json:"transports"`
	From            string            `json:"from"`
	Cc              []string          `json:"cc"`
	Attachments     []string          `json:"attachments"`
	CredentialsFile string            `json:"credentialsFile"`
	TokenFile       string            `json:"tokenFile"`
	SMTP            mailer.SMTPConfig `json:"smtp"`
	OutboxFile      string            `json:"outboxFile"`
	RedisAddr       string            `json:"redisAddr"`
	RedisTTLMinutes int               `json:"redisTtlMinutes"`
}

// FollowUp configures the scheduled-date stream over the enquiry table.
type FollowUp struct {
	Enabled         bool   `json:"enabled"`
	StatusColumn    string `json:"statusColumn"`
	TimestampColumn string `json:"timestampColumn"`
	DateColumn      string `json:"dateColumn"`
	DateLayout      string `json:"dateLayout"`
}

// Reminders configures the check-in countdown reminders.
type Reminders struct {
	Enabled        bool   `json:"enabled"`
	SheetID        string `json:"sheetId"`
	Range          string `json:"range"`
	Recipient      string `json:"recipient"`
	DaysBefore     []int  `json:"daysBefore"`
	DoneMarker     string `json:"doneMarker"`
	NameColumn     string `json:"nameColumn"`
	DestColumn     string `json:"destinationColumn"`
	CheckinColumn  string `json:"checkinColumn"`
	StatusColumn   string `json:"statusColumn"`
	LastSentColumn string `json:"lastSentColumn"`
	CheckinLayout  string `json:"checkinLayout"`
}

// Defaults returns the settings written when no file exists yet.
func Defaults() Settings {
	return Settings{
		EnquiryRange:    "CustomerEnquiry!A1:N1000",
		SupplierRange:   "Supplier!A1:E",
		SupplierColumns: supplier.DefaultColumns,
		StatusColumn:    "Sent to Supplier",
		TimestampColumn: "Email Sent Timestamp",
		SentMarker:      "Email Sent",
		Mode:            compose.ModeLLM,
		ExamplesFile:    "email_examples.txt",
		Company:         compose.Company{Name: "often.club"},
		LLM:             llm.Config{Provider: llm.ProviderGemini, Model: llm.DefaultGeminiModel},

		PollIntervalSeconds: 30,
		SendDelaySeconds:    1,

		Mail: Mail{
			Transports:      []string{"gmail"},
			CredentialsFile: "credentials.json",
			TokenFile:       "token.json",
			SMTP:            mailer.SMTPConfig{Host: "smtp.gmail.com", Port: 587},
			OutboxFile:      "outbox/outbox.log",
			RedisAddr:       "localhost:6379",
		},
		FollowUp: FollowUp{
			StatusColumn:    "Follow-up Status",
			TimestampColumn: "Follow-up Timestamp",
			DateColumn:      "Scheduled Date",
			DateLayout:      "2006-01-02",
		},
		Reminders: Reminders{
			Range:          "SendReminders!A1:G",
			DaysBefore:     []int{60, 30, 7, 6, 5, 4, 3, 2, 1},
			DoneMarker:     "bookings done",
			NameColumn:     "Name",
			DestColumn:     "Destination",
			CheckinColumn:  "Checkin",
			StatusColumn:   "Status",
			LastSentColumn: "Last Reminder",
			CheckinLayout:  "2006-01-02",
		},
	}
}

// Manager handles loading, saving and accessing settings.
type Manager struct {
	filePath string
	settings *Settings
	mu       sync.RWMutex
}

// NewManager loads settings from filePath, creating the file with defaults
// when it does not exist.
func NewManager(filePath string) (*Manager, error) {
	m := &Manager{filePath: filePath}
	if err := m.LoadSettings(); err != nil {
		return nil, err
	}
	return m, nil
}

// LoadSettings reads the JSON file. Missing keys keep their defaults.
func (m *Manager) LoadSettings() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := os.ReadFile(m.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			s := Defaults()
			m.settings = &s
			return m.saveSettings()
		}
		return err
	}

	s := Defaults()
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	m.settings = &s
	return nil
}

// saveSettings expects m.mu to be held.
func (m *Manager) saveSettings() error {
	data, err := json.MarshalIndent(m.settings, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(m.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(m.filePath, data, 0644)
}

// GetSettings returns a copy of the current settings.
func (m *Manager) GetSettings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := *m.settings
	return s
}

// Update applies fn to the settings and saves them.
func (m *Manager) Update(fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.settings)
	return m.saveSettings()
}
