package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/hperssn/timetable/internal/config"
	"github.com/hperssn/timetable/internal/domain"
	"github.com/hperssn/timetable/internal/storage"
)

type catalogSession struct {
	Day     string `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Room    string `json:"room"`
	Teacher string `json:"teacher"`
}

type catalogSection struct {
	ID            string           `json:"id"`
	SubjectID     string           `json:"subjectId"`
	SubjectCode   string           `json:"subjectCode"`
	SubjectName   string           `json:"subjectName"`
	SectionNumber string           `json:"sectionNumber"`
	Capacity      int              `json:"capacity"`
	EnrolledCount int              `json:"enrolledCount"`
	Sessions      []catalogSession `json:"sessions"`
}

func (c catalogSection) toDomain() (domain.Section, error) {
	s := domain.Section{
		ID:            c.ID,
		SubjectID:     c.SubjectID,
		SubjectCode:   c.SubjectCode,
		SubjectName:   c.SubjectName,
		SectionNumber: c.SectionNumber,
		Capacity:      c.Capacity,
		EnrolledCount: c.EnrolledCount,
	}

	for i, cs := range c.Sessions {
		day, err := domain.ParseDay(cs.Day)
		if err != nil {
			return domain.Section{}, fmt.Errorf("section %s session %d: %w", c.ID, i, err)
		}
		start, err := domain.ParseClock(cs.Start)
		if err != nil {
			return domain.Section{}, fmt.Errorf("section %s session %d start: %w", c.ID, i, err)
		}
		end, err := domain.ParseClock(cs.End)
		if err != nil {
			return domain.Section{}, fmt.Errorf("section %s session %d end: %w", c.ID, i, err)
		}

		s.Sessions = append(s.Sessions, domain.Session{
			Day:         day,
			StartMinute: start,
			EndMinute:   end,
			Room:        cs.Room,
			TeacherName: cs.Teacher,
		})
	}

	return s, domain.ValidateSection(s)
}

func parseCatalog(data []byte) ([]domain.Section, error) {
	var raw []catalogSection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	sections := make([]domain.Section, 0, len(raw))
	for _, c := range raw {
		s, err := c.toDomain()
		if err != nil {
			return nil, err
		}
		sections = append(sections, s)
	}
	return sections, nil
}

func main() {
	file := flag.String("file", "catalog.json", "catalog JSON file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("read catalog: %v", err)
	}

	sections, err := parseCatalog(data)
	if err != nil {
		log.Fatalf("parse catalog: %v", err)
	}

	repo, err := storage.Open(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("open %s database: %v", cfg.DBDriver, err)
	}
	defer repo.Close()

	ctx := context.Background()
	for _, s := range sections {
		if err := repo.SaveSection(ctx, s); err != nil {
			log.Fatalf("save section %s: %v", s.ID, err)
		}
	}

	log.Printf("seeded %d sections from %s", len(sections), *file)
}
