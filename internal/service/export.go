package service

import (
	"bytes"
	"encoding/csv"
	"time"

	"github.com/spec-kit/testimonial-service/internal/domain"
	apperrors "github.com/spec-kit/testimonial-service/pkg/util/errorutil"
)

var (
	exportHeader     = []string{"Owner", "Content", "Created At"}
	userExportHeader = []string{"Name", "Email", "Role"}
)

// Export renders items as CSV in the given order. It has no side effects.
func (s *TestimonialService) Export(items []domain.Testimonial) ([]byte, error) {
	records := make([][]string, 0, len(items))
	for _, item := range items {
		records = append(records, []string{item.OwnerName, item.Content, item.CreatedAt.UTC().Format(time.RFC3339)})
	}
	return writeCSV(exportHeader, records)
}

// Export renders users as CSV in the given order. Password material is never written.
func (s *UserService) Export(users []domain.User) ([]byte, error) {
	records := make([][]string, 0, len(users))
	for _, user := range users {
		records = append(records, []string{user.Name, user.Email, string(user.Role)})
	}
	return writeCSV(userExportHeader, records)
}

func writeCSV(header []string, records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(header); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := w.WriteAll(records); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return buf.Bytes(), nil
}
