package question

import (
	"fmt"
	"hash/fnv"
	"math/rand"

	"github.com/interview-lab/interviewd/internal/interview"
)

// Fallback catalogs, served whenever the AI path is unavailable or produced
// an invalid question set. Selection is a seeded shuffle keyed on the job
// context so the same input always yields the same session.

var technicalCatalog = []interview.Question{
	{
		Category: "System Design",
		Prompt:   "How would you design a scalable URL shortener like bit.ly?",
		FollowUps: []string{
			"How would you handle millions of requests per second?",
			"What database would you choose and why?",
			"How would you implement analytics and click tracking?",
		},
		KeyPoints:       []string{"Load balancing", "Database design", "Caching strategy", "Analytics"},
		ReferenceAnswer: "Cover URL hashing, storage schema, cache layering, and horizontal scaling trade-offs.",
	},
	{
		Category: "Architecture",
		Prompt:   "Explain the difference between monolithic and microservices architecture.",
		FollowUps: []string{
			"When would you choose microservices over monolithic?",
			"How do you handle data consistency in microservices?",
			"What are the challenges in microservices communication?",
		},
		KeyPoints:       []string{"Scalability", "Deployment", "Data management", "Communication patterns"},
		ReferenceAnswer: "Contrast deployment units, failure isolation, and operational cost; ground the choice in team and product scale.",
	},
	{
		Category: "Database Design",
		Prompt:   "Explain the difference between SQL and NoSQL databases.",
		FollowUps: []string{
			"When would you choose one over the other?",
			"Can you give examples of each type?",
			"How do you handle data consistency in NoSQL?",
		},
		KeyPoints:       []string{"Schema design", "Consistency models", "Scaling characteristics"},
		ReferenceAnswer: "Discuss schemas, transactions, and horizontal scaling; name representative engines of each family.",
	},
	{
		Category: "Performance",
		Prompt:   "How would you optimize a slow-performing web application?",
		FollowUps: []string{
			"What tools would you use to identify bottlenecks?",
			"How do you handle database query optimization?",
			"What about frontend performance optimization?",
		},
		KeyPoints:       []string{"Profiling", "Query optimization", "Caching", "Asset delivery"},
		ReferenceAnswer: "Measure first, then attack the dominant bottleneck: queries, caching, payload size, render path.",
	},
	{
		Category: "Database Design",
		Prompt:   "Design a database schema for a social media platform.",
		FollowUps: []string{
			"How would you handle friend relationships?",
			"What indexing strategies would you use?",
			"How would you implement the news feed algorithm?",
		},
		KeyPoints:       []string{"Relational design", "Indexing", "Query optimization", "Scalability"},
		ReferenceAnswer: "Model users, posts, and edges; discuss fan-out strategies and index choices for feed queries.",
	},
	{
		Category: "API Design",
		Prompt:   "Design a RESTful API for an e-commerce platform.",
		FollowUps: []string{
			"How would you handle authentication and authorization?",
			"What HTTP status codes would you use for different scenarios?",
			"How would you implement rate limiting?",
		},
		KeyPoints:       []string{"REST principles", "Authentication", "Rate limiting", "Error handling"},
		ReferenceAnswer: "Resource modeling, idempotency, pagination, auth flows, and consistent error envelopes.",
	},
}

var hrCatalog = []interview.Question{
	{
		Category: "Behavioral",
		Prompt:   "Tell me about a time when you had to work with a difficult team member. How did you handle the situation?",
		FollowUps: []string{
			"What would you do differently if you faced a similar situation again?",
			"How do you typically approach workplace conflicts?",
			"What did you learn from this experience?",
		},
		KeyPoints:       []string{"Communication", "Conflict Resolution", "Teamwork", "Leadership"},
		ReferenceAnswer: "A STAR-structured story showing empathy, direct communication, and a concrete positive outcome.",
	},
	{
		Category: "Situational",
		Prompt:   "If you were assigned a project with a very tight deadline and limited resources, how would you approach it?",
		FollowUps: []string{
			"How would you communicate with stakeholders about potential delays?",
			"What if team members started showing signs of burnout?",
			"How would you ensure quality isn't compromised?",
		},
		KeyPoints:       []string{"Project Management", "Prioritization", "Leadership", "Adaptability"},
		ReferenceAnswer: "Prioritization, scope negotiation, and early stakeholder communication under pressure.",
	},
	{
		Category: "Motivational",
		Prompt:   "What motivates you in your work, and how do you stay engaged during challenging periods?",
		FollowUps: []string{
			"How do you handle feedback, both positive and constructive?",
			"What role does professional development play in your motivation?",
			"How do you maintain work-life balance?",
		},
		KeyPoints:       []string{"Self-Motivation", "Resilience", "Goal Setting", "Self-Awareness"},
		ReferenceAnswer: "An authentic driver connected to the role, plus concrete strategies for sustaining momentum.",
	},
	{
		Category: "Leadership",
		Prompt:   "Describe a time when you had to lead a team through a significant change or challenge.",
		FollowUps: []string{
			"How did you address team concerns and resistance?",
			"What strategies did you use to maintain morale?",
			"How do you measure the success of change initiatives?",
		},
		KeyPoints:       []string{"Leadership", "Change Management", "Communication", "Team Building"},
		ReferenceAnswer: "Leadership style, transparent communication during change, and measured results.",
	},
	{
		Category: "Problem Solving",
		Prompt:   "Tell me about a time when you identified and solved a significant problem at work.",
		FollowUps: []string{
			"How did you get buy-in from stakeholders for your solution?",
			"What obstacles did you encounter during implementation?",
			"How do you typically approach problem-solving?",
		},
		KeyPoints:       []string{"Problem Solving", "Innovation", "Analysis", "Implementation"},
		ReferenceAnswer: "Clear problem definition, an analytical approach, and quantified impact.",
	},
	{
		Category: "Cultural Fit",
		Prompt:   "How do you handle situations where you disagree with a decision made by upper management?",
		FollowUps: []string{
			"Can you give an example of when this actually happened?",
			"How do you balance personal values with company decisions?",
			"What would make you consider leaving a position?",
		},
		KeyPoints:       []string{"Professional Ethics", "Communication", "Adaptability", "Integrity"},
		ReferenceAnswer: "Respectful disagreement, constructive escalation, and commitment once a decision lands.",
	},
}

var codingCatalog = []interview.Question{
	{
		Category: "Array",
		Prompt:   "Two Sum: given an array of integers nums and an integer target, return indices of the two numbers such that they add up to target.",
		FollowUps: []string{
			"Can you do it in a single pass?",
			"What is the time and space complexity of your solution?",
		},
		KeyPoints:       []string{"Hash map lookup", "Single pass", "Complexity analysis"},
		ReferenceAnswer: "One-pass hash map of value to index; O(n) time, O(n) space.",
	},
	{
		Category: "Stack",
		Prompt:   "Valid Parentheses: given a string s containing just the characters '(', ')', '{', '}', '[' and ']', determine if the input string is valid.",
		FollowUps: []string{
			"How does your solution behave on an empty string?",
			"Could you extend it to report the position of the first mismatch?",
		},
		KeyPoints:       []string{"Stack discipline", "Matching pairs", "Edge cases"},
		ReferenceAnswer: "Push openers, pop and match on closers; valid iff the stack empties exactly.",
	},
}

// resumeCatalog yields role-personalized generic questions, mirroring the
// classic five-question fallback set.
func resumeCatalog(role string) []interview.Question {
	if role == "" {
		role = "Software Developer"
	}
	return []interview.Question{
		{
			Category:        "Introduction",
			Prompt:          fmt.Sprintf("Tell me about yourself and your experience as a %s.", role),
			KeyPoints:       []string{"Professional summary", "Relevant experience", "Connection to role"},
			ReferenceAnswer: "A brief professional summary, two or three relevant projects with quantified results, and why this role.",
		},
		{
			Category:        "Strengths",
			Prompt:          fmt.Sprintf("What are your greatest strengths and how do they relate to this %s position?", role),
			KeyPoints:       []string{"Relevant strengths", "Specific examples", "Role alignment"},
			ReferenceAnswer: "Two or three strengths, each with a specific example tied to the role's requirements.",
		},
		{
			Category:        "Problem Solving",
			Prompt:          fmt.Sprintf("Describe a challenging technical problem you solved as a %s. Walk me through your approach.", role),
			KeyPoints:       []string{"Situation", "Task", "Action", "Result"},
			ReferenceAnswer: "A STAR-structured walkthrough of a genuinely hard problem with measurable outcome.",
		},
		{
			Category:        "Career Goals",
			Prompt:          fmt.Sprintf("Where do you see yourself in 5 years as a %s?", role),
			KeyPoints:       []string{"Professional growth", "Value creation", "Role alignment"},
			ReferenceAnswer: "Growth trajectory, skills to develop, and how this position fits that path.",
		},
		{
			Category:        "Company Interest",
			Prompt:          fmt.Sprintf("Why are you interested in this %s role and our company specifically?", role),
			KeyPoints:       []string{"Company research", "Role alignment", "Personal connection"},
			ReferenceAnswer: "Research-grounded reasons for the company, the role, and the specific value the candidate brings.",
		},
	}
}

// fallbackSet returns a deterministic, count-bounded question list for the
// mode, with fresh IDs assigned. Identical job contexts produce identical
// sets.
func fallbackSet(mode interview.Mode, job interview.JobContext, count int) []interview.Question {
	var catalog []interview.Question
	switch mode {
	case interview.ModeHR:
		catalog = hrCatalog
	case interview.ModeCoding:
		catalog = codingCatalog
	case interview.ModeResume:
		catalog = resumeCatalog(job.Role)
	default:
		catalog = technicalCatalog
	}

	picked := make([]interview.Question, len(catalog))
	copy(picked, catalog)

	rng := rand.New(rand.NewSource(int64(seedFor(mode, job))))
	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})

	if count > 0 && count < len(picked) {
		picked = picked[:count]
	}
	for i := range picked {
		picked[i].ID = fmt.Sprintf("%s-fallback-%d", mode, i+1)
	}
	return picked
}

func seedFor(mode interview.Mode, job interview.JobContext) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(mode))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(job.Role))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(job.Experience))
	return h.Sum64()
}
