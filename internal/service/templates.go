package service

import (
	"fmt"

	"coverforge/internal/model"
)

// The generation backend is a template stub: real model integration is a
// separate concern and slots in behind the same GenerationService interface.

func renderCoverLetter(jobTitle, companyName string, tone model.CoverLetterTone) string {
	switch tone {
	case model.ToneEnthusiastic:
		return fmt.Sprintf(`Dear Hiring Team,

I am thrilled to apply for the %[1]s position at %[2]s! This opportunity perfectly aligns with my career goals and passion for the industry.

Throughout my career, I have developed strong skills that directly translate to success in this role. I am excited about the possibility of bringing my enthusiasm and expertise to your innovative team at %[2]s.

What excites me most about this opportunity is the chance to work with a company that values innovation and excellence. I am confident that my proactive approach and dedication would make a positive impact on your organization.

I would love the opportunity to discuss how my background and enthusiasm can contribute to %[2]s's continued growth and success. Thank you for considering my application!

Best regards,
[Your Name]`, jobTitle, companyName)
	case model.ToneConcise:
		return fmt.Sprintf(`Dear Hiring Manager,

I am applying for the %[1]s position at %[2]s. My experience and skills make me well-suited for this role.

Key qualifications include:
• Relevant experience in the field
• Strong technical and communication skills
• Proven track record of success

I am excited about the opportunity to contribute to %[2]s and would welcome the chance to discuss my qualifications further.

Thank you for your consideration.

Best regards,
[Your Name]`, jobTitle, companyName)
	default:
		// Unknown tones fall back to professional.
		return fmt.Sprintf(`Dear Hiring Manager,

I am writing to express my strong interest in the %[1]s position at %[2]s. With my background and experience outlined in my resume, I am confident that I would be a valuable addition to your team.

My skills and experience align well with the requirements for this role. I have demonstrated expertise in relevant areas and am excited about the opportunity to contribute to %[2]s's continued success.

I am particularly drawn to this position because it represents an excellent opportunity to apply my skills in a dynamic environment. I am eager to bring my passion and dedication to help drive meaningful results for your organization.

Thank you for your time and consideration. I look forward to the opportunity to discuss how my background and enthusiasm can contribute to your team's success.

Sincerely,
[Your Name]`, jobTitle, companyName)
	}
}

func renderEmail(emailType model.EmailType, jobTitle, companyName, hiringManagerName string) (subject, content string) {
	switch emailType {
	case model.EmailFollowUp:
		subject = fmt.Sprintf("Following up on %s Application", jobTitle)
		content = fmt.Sprintf(`Dear Hiring Manager,

I hope you are doing well. I wanted to follow up on my application for the %s position at %s, which I submitted recently.

I remain very interested in this opportunity and am excited about the possibility of joining your team. If you need any additional information or have any questions, please don't hesitate to reach out.

I look forward to hearing from you soon.

Best regards,
[Your Name]`, jobTitle, companyName)
	case model.EmailThankYou:
		greeting := hiringManagerName
		if greeting == "" {
			greeting = "Hiring Manager"
		}
		subject = fmt.Sprintf("Thank you for the %s Interview", jobTitle)
		content = fmt.Sprintf(`Dear %s,

Thank you for taking the time to meet with me today to discuss the %s position at %s. I enjoyed our conversation and learning more about the role and your team.

Our discussion reinforced my enthusiasm for this opportunity. I am confident that my skills and experience would enable me to make a positive contribution to your organization.

Please don't hesitate to contact me if you need any additional information. I look forward to hearing about the next steps in the process.

Thank you again for your time and consideration.

Best regards,
[Your Name]`, greeting, jobTitle, companyName)
	default:
		subject = fmt.Sprintf("Application for %s Position", jobTitle)
		content = fmt.Sprintf(`Dear Hiring Manager,

I hope this email finds you well. I am writing to formally submit my application for the %s position at %s.

I have attached my resume and cover letter for your review. I am very interested in this opportunity and believe my background and skills align well with your requirements.

I would welcome the opportunity to discuss how I can contribute to your team. Please let me know if you need any additional information.

Thank you for your time and consideration.

Best regards,
[Your Name]`, jobTitle, companyName)
	}
	return subject, content
}
