package service

import (
	"regexp"
	"strings"
)

// AnalysisResult is the scored outcome of a resume analysis, independent of
// how the resume text arrived (inline or via the upload pipeline).
type AnalysisResult struct {
	Score           int
	Suggestions     []string
	KeywordMatches  []string
	MissingKeywords []string
}

// knownKeywords is the vocabulary the analyzer recognizes in job
// descriptions and resumes.
var knownKeywords = []string{
	"JavaScript", "React", "Node.js", "Python", "Java", "TypeScript", "Go",
	"Project Management", "Team Leadership", "Communication", "Problem Solving",
	"Agile", "Scrum", "Git", "AWS", "Docker", "Kubernetes",
	"Data Analysis", "Machine Learning", "Customer Service", "Strategic Planning",
}

var phoneRe = regexp.MustCompile(`\d{3}[-.]?\d{3}[-.]?\d{4}`)
var digitRe = regexp.MustCompile(`\d`)
var wordRe = regexp.MustCompile(`\b\w{4,}\b`)

// ExtractKeywords returns the known keywords that appear in the job
// description, preserving vocabulary order.
func ExtractKeywords(jobDescription string) []string {
	if strings.TrimSpace(jobDescription) == "" {
		return nil
	}
	lower := strings.ToLower(jobDescription)
	var found []string
	for _, kw := range knownKeywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			found = append(found, kw)
		}
	}
	return found
}

// AnalyzeResumeContent scores a resume, optionally against a job
// description, and derives suggestions and keyword coverage.
func AnalyzeResumeContent(resumeText, jobDescription string) AnalysisResult {
	lowerResume := strings.ToLower(resumeText)

	// Base score plus section and length signals.
	score := 50
	for _, section := range []string{"experience", "skills", "education", "work", "project", "achievement"} {
		if strings.Contains(lowerResume, section) {
			score += 5
		}
	}
	if len(resumeText) > 500 {
		score += 10
	}
	if len(resumeText) > 1000 {
		score += 10
	}
	if strings.Contains(resumeText, "@") {
		score += 5
	}
	if phoneRe.MatchString(resumeText) {
		score += 5
	}

	var matches, missing []string
	if strings.TrimSpace(jobDescription) != "" {
		for _, kw := range ExtractKeywords(jobDescription) {
			if strings.Contains(lowerResume, strings.ToLower(kw)) {
				matches = append(matches, kw)
			} else {
				missing = append(missing, kw)
			}
		}
		jobWords := wordRe.FindAllString(strings.ToLower(jobDescription), -1)
		resumeWords := make(map[string]bool)
		for _, w := range wordRe.FindAllString(lowerResume, -1) {
			resumeWords[w] = true
		}
		overlap := 0
		seen := make(map[string]bool)
		for _, w := range jobWords {
			if resumeWords[w] && !seen[w] {
				overlap++
				seen[w] = true
			}
		}
		if bonus := overlap * 2; bonus > 20 {
			score += 20
		} else {
			score += bonus
		}
	} else {
		for _, kw := range knownKeywords {
			if strings.Contains(lowerResume, strings.ToLower(kw)) {
				matches = append(matches, kw)
			}
		}
	}
	if score > 100 {
		score = 100
	}

	return AnalysisResult{
		Score:           score,
		Suggestions:     suggestResumeImprovements(resumeText, missing),
		KeywordMatches:  matches,
		MissingKeywords: missing,
	}
}

func suggestResumeImprovements(resumeText string, missing []string) []string {
	var suggestions []string
	if !digitRe.MatchString(resumeText) {
		suggestions = append(suggestions, "Add more quantifiable achievements with specific numbers and percentages")
	}
	if len(missing) > 0 {
		suggestions = append(suggestions, "Include relevant keywords from the job description")
	}
	if !strings.Contains(strings.ToLower(resumeText), "summary") {
		suggestions = append(suggestions, "Add a professional summary section at the top")
	}
	if len(resumeText) < 500 {
		suggestions = append(suggestions, "Expand on your accomplishments with more action verbs and detail")
	}
	suggestions = append(suggestions, "Improve the formatting for better ATS compatibility")
	if len(suggestions) > 4 {
		suggestions = suggestions[:4]
	}
	return suggestions
}
