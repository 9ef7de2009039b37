package storage

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hperssn/timetable/internal/domain"
)

// sqlStore holds the queries shared by both backends. Queries are written
// with ? placeholders and rebound for drivers that need numbered ones.
type sqlStore struct {
	db     *sql.DB
	rebind func(string) string
}

func (s *sqlStore) q(query string) string {
	if s.rebind == nil {
		return query
	}
	return s.rebind(query)
}

func dollarPlaceholders(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const sectionColumns = `s.id, s.subject_id, s.subject_code, s.subject_name, s.section_number,
	s.capacity, s.enrolled_count, s.sessions_json`

func (s *sqlStore) SaveSection(ctx context.Context, sec domain.Section) error {
	if err := domain.ValidateSection(sec); err != nil {
		return err
	}
	record, err := FromDomainSection(sec)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO sections (id, subject_id, subject_code, subject_name, section_number, capacity, enrolled_count, sessions_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			subject_id = excluded.subject_id,
			subject_code = excluded.subject_code,
			subject_name = excluded.subject_name,
			section_number = excluded.section_number,
			capacity = excluded.capacity,
			enrolled_count = excluded.enrolled_count,
			sessions_json = excluded.sessions_json
	`

	_, err = s.db.ExecContext(
		ctx,
		s.q(query),
		record.ID,
		record.SubjectID,
		record.SubjectCode,
		record.SubjectName,
		record.SectionNumber,
		record.Capacity,
		record.EnrolledCount,
		string(record.SessionsJSON),
	)

	return err
}

func (s *sqlStore) LoadCatalog(ctx context.Context) ([]domain.Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM sections s
		ORDER BY s.subject_code, s.section_number, s.id
	`

	rows, err := s.db.QueryContext(ctx, s.q(query))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSections(rows)
}

func (s *sqlStore) LoadRegistrations(ctx context.Context, studentID string) ([]domain.Section, error) {
	query := `
		SELECT ` + sectionColumns + `
		FROM registrations r
		JOIN sections s ON s.id = r.section_id
		WHERE r.student_id = ?
		ORDER BY s.subject_code, s.section_number, s.id
	`

	rows, err := s.db.QueryContext(ctx, s.q(query), studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSections(rows)
}

// SubmitBulk registers each item in its own transaction, so one rejected
// item never undoes another. Items are rejected when the section is
// unknown, the student already holds the subject, or no seat is left.
// A returned error means the outcome of the remaining items is unknown.
func (s *sqlStore) SubmitBulk(ctx context.Context, studentID string, items []domain.RegistrationRequest) (domain.BulkResult, error) {
	result := domain.BulkResult{Failed: []domain.ItemFailure{}}

	for _, item := range items {
		reason, err := s.registerOne(ctx, studentID, item)
		if err != nil {
			return domain.BulkResult{}, err
		}
		if reason != "" {
			result.Failed = append(result.Failed, domain.ItemFailure{Code: item.SubjectCode, Reason: reason})
			continue
		}
		result.TotalRegistered++
	}

	log.Printf("bulk registration for %s: %d registered, %d failed", studentID, result.TotalRegistered, len(result.Failed))
	return result, nil
}

func (s *sqlStore) registerOne(ctx context.Context, studentID string, item domain.RegistrationRequest) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var subjectID string
	err = tx.QueryRowContext(ctx, s.q(`SELECT subject_id FROM sections WHERE id = ?`), item.SectionID).Scan(&subjectID)
	if errors.Is(err, sql.ErrNoRows) {
		return ReasonSectionNotFound, nil
	}
	if err != nil {
		return "", err
	}

	var held int
	err = tx.QueryRowContext(
		ctx,
		s.q(`SELECT COUNT(*) FROM registrations WHERE student_id = ? AND subject_id = ?`),
		studentID,
		subjectID,
	).Scan(&held)
	if err != nil {
		return "", err
	}
	if held > 0 {
		return ReasonSubjectRegistered, nil
	}

	res, err := tx.ExecContext(
		ctx,
		s.q(`UPDATE sections SET enrolled_count = enrolled_count + 1 WHERE id = ? AND enrolled_count < capacity`),
		item.SectionID,
	)
	if err != nil {
		return "", err
	}
	if n, err := res.RowsAffected(); err != nil {
		return "", err
	} else if n == 0 {
		return ReasonSectionFull, nil
	}

	_, err = tx.ExecContext(
		ctx,
		s.q(`INSERT INTO registrations (id, student_id, section_id, subject_id, created_at) VALUES (?, ?, ?, ?, ?)`),
		uuid.NewString(),
		studentID,
		item.SectionID,
		subjectID,
		time.Now().UTC(),
	)
	if err != nil {
		return "", err
	}

	return "", tx.Commit()
}

func scanSections(rows *sql.Rows) ([]domain.Section, error) {
	var sections []domain.Section

	for rows.Next() {
		var record SectionRecord

		err := rows.Scan(
			&record.ID,
			&record.SubjectID,
			&record.SubjectCode,
			&record.SubjectName,
			&record.SectionNumber,
			&record.Capacity,
			&record.EnrolledCount,
			&record.SessionsJSON,
		)
		if err != nil {
			return nil, err
		}

		sec, err := record.ToDomain()
		if err != nil {
			log.Printf("skipping section %s: %v", record.ID, err)
			continue
		}

		sections = append(sections, sec)
	}

	return sections, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
