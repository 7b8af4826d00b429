// Package parser turns resume plain text into an ExtractedRecord.
//
// Text is segmented into name, education, skills and work-experience blocks
// in one forward pass, each block is handed to its own heuristic extractor,
// and the results are assembled into one record. Every step is total: a
// missing section or field yields an empty collection, never an error.
package parser

import (
	"log/slog"

	"github.com/fmuoria/resume-parser/internal/models"
	"github.com/fmuoria/resume-parser/internal/refdata"
)

// Parser extracts structured fields from resume text.
// It holds no mutable state and is safe for concurrent use.
type Parser struct {
	data      *refdata.Dataset
	matcher   Matcher
	segmenter *Segmenter
	expMode   ExperienceMode
	logger    *slog.Logger
}

// Option configures a Parser
type Option func(*Parser)

// WithMatcher sets the keyword matching strategy
func WithMatcher(m Matcher) Option {
	return func(p *Parser) {
		if m != nil {
			p.matcher = m
		}
	}
}

// WithExperienceMode sets how many work-experience entries are collected
func WithExperienceMode(mode ExperienceMode) Option {
	return func(p *Parser) {
		if mode != "" {
			p.expMode = mode
		}
	}
}

// WithLogger sets the logger used for debug output
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a parser over the given reference data
func New(data *refdata.Dataset, opts ...Option) *Parser {
	p := &Parser{
		data:    data,
		matcher: SubstringMatcher{},
		expMode: ExperienceAll,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.segmenter = NewSegmenter(p.matcher)
	return p
}

// Segment exposes the section blocks for text
func (p *Parser) Segment(text string) Sections {
	return p.segmenter.Segment(text)
}

// Parse runs segmentation and every field extractor over text
func (p *Parser) Parse(text string) models.ExtractedRecord {
	sections := p.segmenter.Segment(text)

	rec := models.NewExtractedRecord()
	rec.Emails = ExtractEmails(text)
	rec.Phones = ExtractPhones(text)
	rec.Name = p.ExtractNames(sections.Name.Lines)
	rec.Education = p.ExtractEducation(sections.Education.Lines)
	rec.Skills = p.ExtractSkills(sections.Skills.Lines)
	rec.Experience = p.ExtractExperience(sections.Experience.Lines)

	p.logger.Debug("parsed resume text",
		"name_lines", len(sections.Name.Lines),
		"education_lines", len(sections.Education.Lines),
		"skills_lines", len(sections.Skills.Lines),
		"experience_lines", len(sections.Experience.Lines),
		"emails", len(rec.Emails),
		"skills", len(rec.Skills),
		"experience", len(rec.Experience),
	)

	return rec
}
