package services

import (
	"fmt"
	"strings"

	"requira/internal/models"
)

const (
	chatMaxTokens     = 500
	critiqueMaxTokens = 1000
	namesMaxTokens    = 300
)

const notProvided = "Not provided"

const chatKickoff = "Please greet me and ask your first question about the project."

const chatInstructions = `You are Requira, an expert requirements analyst. Gather complete software requirements for the client's project through conversation.

Your objectives:
1. Ask probing questions until you understand the project well
2. Cover functional requirements, non-functional requirements, domain requirements, and inverse requirements (what the system must NOT do)
3. Point out ambiguities, conflicts and missing information
4. Keep the conversation natural while making sure every category is covered

Guidelines:
- Ask ONE focused question at a time
- Briefly acknowledge what the client said before asking the next question
- After about 4-6 exchanges, offer to summarize and submit
- Stay professional and friendly
- Ask a follow-up question when an answer is vague

Once you have gathered enough requirements, end your reply with the phrase "REQUIREMENTS_COMPLETE".

Reply in conversational prose, not as a list.`

func chatSystemPrompt(projectTitle, clientName string) string {
	return fmt.Sprintf("%s\n\nProject: %q\nClient: %s", chatInstructions, projectTitle, clientName)
}

const critiqueInstructions = `You are an expert software requirements analyst. Critically review the requirements you are given for completeness, quality and clarity.

Structure your critique in exactly these sections:
1. **Completeness Assessment** - Rate each category (Functional, Non-Functional, Domain, Constraints) as Complete, Partial, or Missing
2. **Quality Issues** - Identify:
   - Ambiguous or vague statements
   - Missing acceptance criteria
   - Conflicting requirements
   - Untestable requirements
3. **Recommendations** - Give 3-5 specific, actionable improvements
4. **Risk Areas** - Highlight risks or gaps that could cause project issues
5. **Overall Score** - Rate the requirements quality as: Excellent, Good, Fair, or Needs Work

Be constructive and specific, and quote the requirements when pointing out issues.`

func orText(field *string, fallback string) string {
	if text := strings.TrimSpace(models.Text(field)); text != "" {
		return text
	}
	return fallback
}

func critiquePrompt(p *models.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Please analyze the following software requirements for the project %q:\n\n", p.ProjectTitle)
	fmt.Fprintf(&b, "**Functional Requirements:**\n%s\n\n", orText(p.Requirements.Functional, notProvided))
	fmt.Fprintf(&b, "**Non-Functional Requirements:**\n%s\n\n", orText(p.Requirements.NonFunctional, notProvided))
	fmt.Fprintf(&b, "**Domain Requirements:**\n%s\n\n", orText(p.Requirements.Domain, notProvided))
	fmt.Fprintf(&b, "**Constraints/Exclusions:**\n%s\n\n", orText(p.Requirements.Inverse, notProvided))
	b.WriteString("Provide a detailed critique following the structured format.")
	return b.String()
}

const srsInstructions = `You are a technical writer who specializes in Software Requirements Specification (SRS) documents. Organize a client's raw requirements into a structured SRS.

Return a valid JSON object with exactly this structure:
{
  "introduction": {
    "purpose": "Purpose of the document",
    "scope": "Scope and boundaries of the system"
  },
  "overallDescription": {
    "productPerspective": "How the product fits into a larger system or workflow",
    "userCharacteristics": "User types and their skill levels"
  },
  "systemFeatures": [
    {
      "title": "Feature name",
      "description": "Detailed description of the feature",
      "inputs": "Inputs the feature accepts",
      "outputs": "Outputs the feature produces",
      "behavior": "How the feature behaves"
    }
  ],
  "nonFunctionalRequirements": {
    "performance": ["Performance requirements"],
    "security": ["Security requirements"],
    "usability": ["Usability requirements"],
    "reliability": ["Reliability requirements"],
    "other": ["Other non-functional requirements"]
  },
  "externalInterfaces": {
    "userInterface": "User interface requirements",
    "hardware": "Hardware interface requirements",
    "software": "Software interface requirements",
    "communication": "Communication interface requirements"
  },
  "constraints": ["Constraints and exclusions"]
}

Guidelines:
- Include ALL requirements from the information provided
- Infer reasonable details where information is limited
- Use clear, professional technical language
- Make each feature a distinct, actionable system capability
- Categorize non-functional requirements accurately
- Mark sections with no applicable requirements as "To be determined"
- Return ONLY the JSON object, without markdown or commentary`

func srsPrompt(p *models.Project, companyName string) string {
	var b strings.Builder
	b.WriteString("Please organize the following project requirements into a structured SRS document.\n\n")
	b.WriteString("PROJECT INFORMATION:\n")
	fmt.Fprintf(&b, "- Title: %s\n", p.ProjectTitle)
	fmt.Fprintf(&b, "- Description: %s\n", orText(&p.ProjectDescription, notProvided))
	fmt.Fprintf(&b, "- Client: %s\n", p.ClientName)
	fmt.Fprintf(&b, "- Company: %s\n\n", companyName)
	b.WriteString("RAW REQUIREMENTS:\n\n")
	fmt.Fprintf(&b, "FUNCTIONAL REQUIREMENTS:\n%s\n\n", orText(p.Requirements.Functional, "No functional requirements provided"))
	fmt.Fprintf(&b, "NON-FUNCTIONAL REQUIREMENTS:\n%s\n\n", orText(p.Requirements.NonFunctional, "No non-functional requirements provided"))
	fmt.Fprintf(&b, "DOMAIN REQUIREMENTS:\n%s\n\n", orText(p.Requirements.Domain, "No domain requirements provided"))
	fmt.Fprintf(&b, "CONSTRAINTS/EXCLUSIONS:\n%s\n\n", orText(p.Requirements.Inverse, "No constraints provided"))
	b.WriteString("Return the structured SRS JSON object.")
	return b.String()
}

const namesInstructions = `You name software projects. From the project requirements and conversation history you are given, propose 5 creative, professional and memorable project names.

Guidelines:
- Easy to remember and pronounce
- Reflect the project's purpose or domain
- Mix single words, compound words and short phrases
- Suitable for branding and documentation
- Avoid generic names like "Project Manager" or "Task App"

Return ONLY a JSON array of 5 names, for example:
["Name1", "Name2", "Name3", "Name4", "Name5"]`

func namesPrompt(p *models.Project) string {
	var reqs []string
	fields := []struct {
		key   string
		value *string
	}{
		{"functional", p.Requirements.Functional},
		{"nonFunctional", p.Requirements.NonFunctional},
		{"domain", p.Requirements.Domain},
		{"inverse", p.Requirements.Inverse},
	}
	for _, f := range fields {
		if text := models.Text(f.value); text != "" {
			reqs = append(reqs, f.key+": "+text)
		}
	}
	requirements := strings.Join(reqs, "\n")
	if requirements == "" {
		requirements = "No structured requirements yet"
	}

	var history []string
	for _, msg := range p.History {
		history = append(history, fmt.Sprintf("%s: %s", msg.Role, msg.Text))
	}
	conversation := strings.Join(history, "\n")
	if conversation == "" {
		conversation = "No conversation history"
	}

	return fmt.Sprintf("Current project title: %q\n\nProject Requirements:\n%s\n\n"+
		"Conversation History (client's description of the project):\n%s\n\n"+
		"Based on the above information, suggest 5 creative and professional project names.",
		p.ProjectTitle, requirements, conversation)
}
