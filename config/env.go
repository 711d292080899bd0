package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/bassamadnan/tripmail/compose"
	"github.com/bassamadnan/tripmail/llm"
)

// LoadEnv loads a dotenv file into the process environment. A missing file
// is not an error; variables already set in the environment win.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("unable to load %s: %v", path, err)
	}
	return nil
}

// ApplyEnv overlays environment variables onto s. Secrets are only ever
// taken from the environment.
func ApplyEnv(s *Settings) {
	if v := firstEnv("SHEET_ID", "GOOGLE_SHEET_ID"); v != "" {
		s.EnquirySheetID = v
	}
	if v := os.Getenv("SUPPLIER_SHEET_ID"); v != "" {
		s.SupplierSheetID = v
	}
	if v := os.Getenv("REMINDER_SHEET_ID"); v != "" {
		s.Reminders.SheetID = v
	}
	if v := os.Getenv("REMINDER_RECIPIENT"); v != "" {
		s.Reminders.Recipient = v
	}
	if v := os.Getenv("EMAIL_MODE"); v != "" {
		s.Mode = compose.Mode(strings.ToLower(v))
	}
	if v := firstEnv("SENDER_EMAIL", "MAIL_FROM"); v != "" {
		s.Mail.From = v
	}
	if v := os.Getenv("MAIL_TRANSPORTS"); v != "" {
		s.Mail.Transports = splitList(v)
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		s.Mail.SMTP.Username = v
	}
	if v := firstEnv("SMTP_PASSWORD", "SENDER_PASSWORD"); v != "" {
		s.Mail.SMTP.Password = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		s.Mail.RedisAddr = v
	}
	if v := os.Getenv("POLL_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.PollIntervalSeconds = n
		}
	}
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		s.LLM.Provider = llm.Provider(strings.ToLower(v))
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		s.LLM.Model = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		s.LLM.BaseURL = v
	}

	// Both sheets usually live in the same spreadsheet.
	if s.SupplierSheetID == "" {
		s.SupplierSheetID = s.EnquirySheetID
	}
	if s.Reminders.SheetID == "" {
		s.Reminders.SheetID = s.EnquirySheetID
	}
}

// Validate reports configuration that makes a dispatch cycle impossible.
func (s Settings) Validate() error {
	var errs []error
	if s.EnquirySheetID == "" {
		errs = append(errs, errors.New("enquiry sheet ID not configured (set SHEET_ID)"))
	}
	if s.EnquiryRange == "" {
		errs = append(errs, errors.New("enquiry range not configured"))
	}
	if s.SupplierRange == "" {
		errs = append(errs, errors.New("supplier range not configured"))
	}
	if s.StatusColumn == "" {
		errs = append(errs, errors.New("status column not configured"))
	}
	if s.SentMarker == "" {
		errs = append(errs, errors.New("sent marker not configured"))
	}
	switch s.Mode {
	case compose.ModeLLM, compose.ModeTemplate:
	default:
		errs = append(errs, fmt.Errorf("unknown email mode %q", s.Mode))
	}
	if s.PollIntervalSeconds <= 0 {
		errs = append(errs, fmt.Errorf("poll interval must be positive, got %d", s.PollIntervalSeconds))
	}
	if s.SendDelaySeconds < 0 {
		errs = append(errs, fmt.Errorf("send delay must not be negative, got %d", s.SendDelaySeconds))
	}
	if len(s.Mail.Transports) == 0 {
		errs = append(errs, errors.New("no mail transport configured"))
	}
	for _, t := range s.Mail.Transports {
		switch t {
		case TransportGmail, TransportSMTP, TransportFile, TransportRedis:
		default:
			errs = append(errs, fmt.Errorf("unknown mail transport %q", t))
		}
	}
	if s.FollowUp.Enabled && s.FollowUp.DateColumn == "" {
		errs = append(errs, errors.New("follow-up date column not configured"))
	}
	if s.Reminders.Enabled && s.Reminders.Recipient == "" {
		errs = append(errs, errors.New("reminder recipient not configured"))
	}
	return errors.Join(errs...)
}

const (
	TransportGmail = "gmail"
	TransportSMTP  = "smtp"
	TransportFile  = "file"
	TransportRedis = "redis"
)

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
