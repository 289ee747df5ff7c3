package scenario

import "z-scenario-gen/internal/workflow/collab"

// 协作者角色，同时用作 llm.roles 的键
const (
	RoleCreative    = "creative"
	RoleDesign      = "design"
	RoleCoordinator = "coordinator"
	RoleProbe       = "probe"
)

// 阶段名
const (
	StageConcept         = "concept"
	StageStructure       = "structure"
	StageEnrich          = "enrich"
	StageCritique        = "critique"
	StageRefine          = "refine"
	StageAdjustMechanics = "adjust_mechanics"
	StagePolish          = "polish"
	StageValidate        = "validate"
	StageOrchestrate     = "orchestrate"
	StageProbe           = "probe"
)

// stageSubRoles 每个阶段可委派的子角色
var stageSubRoles = map[string]map[string]collab.SubRole{
	StageConcept: {
		"concept-refiner": {
			Description: "Expert in refining and polishing creative concepts to ensure uniqueness and quality",
			Profile:     "You review creative concepts and suggest improvements to make them more unique, engaging, and well-structured.",
			Tier:        collab.TierFast,
		},
	},
	StageStructure: {
		"balance-expert": {
			Description: "Expert in game balance and difficulty tuning",
			Profile:     "You are a game balance expert. You ensure challenges are fair but engaging, with good risk/reward ratios.",
			Tier:        collab.TierFast,
		},
	},
	StageEnrich: {
		"dialogue-specialist": {
			Description: "Expert in writing natural, engaging dialogue",
			Profile:     "You are a dialogue specialist. You ensure conversations flow naturally, reveal character, and advance the plot.",
			Tier:        collab.TierStandard,
		},
	},
	StageCritique: {
		"qa-tester": {
			Description: "Expert QA tester for identifying playability issues",
			Profile:     "You are a QA tester. You identify bugs, balance issues, confusing elements, and gameplay problems.",
			Tier:        collab.TierStandard,
		},
	},
	StageRefine: {
		"editor": {
			Description: "Expert editor for refining narrative based on feedback",
			Profile:     "You are a senior editor. You ensure all feedback is addressed while maintaining narrative quality and voice.",
			Tier:        collab.TierStandard,
		},
	},
	StageAdjustMechanics: {
		"math-expert": {
			Description: "Expert in game math and damage calculations",
			Profile:     "You ensure all game math is balanced. You calculate damage curves, XP requirements, and stat scaling.",
			Tier:        collab.TierFast,
		},
	},
	StagePolish: {
		"proofreader": {
			Description: "Expert proofreader for final quality check",
			Profile:     "You are a meticulous proofreader. You catch every error and ensure professional presentation.",
			Tier:        collab.TierFast,
		},
	},
}

// orchestratedSubRoles 单次编排调用的全部子角色
var orchestratedSubRoles = map[string]collab.SubRole{
	"creative-writer": {
		Description: "Creative writing expert for game narratives, dialogues, and concepts",
		Profile: `You are a creative writer for text-based adventure games.
You write concepts, narratives, and dialogues that are original, funny, and warm.
You rewrite your drafts when given feedback and keep the voice consistent.`,
		Tier: collab.TierStandard,
	},
	"game-designer": {
		Description: "Game design expert specializing in interactive narratives, branching choices, and RPG battle mechanics. Creates balanced, engaging game systems with proper progression.",
		Profile: `You are a game design expert for text-based adventure games.
You design interactive narratives with meaningful choices, branching storylines with consequences,
turn-based combat systems, character progression and stats, and difficulty curves.
Your designs are playable, well-balanced, clear, and fun.`,
		Tier: collab.TierStandard,
	},
	"coordinator": {
		Description: "Main coordinator that orchestrates the multi-agent scenario generation process",
		Profile: `You are the scenario generation coordinator.
You manage the workflow between creative writing and game design agents.
You ensure all scenarios are complete, validated, and unique.
You track progress and ensure quality standards are met.`,
		Tier: collab.TierStandard,
	},
}

// stageRole 阶段归属的协作者
func stageRole(stage string) string {
	switch stage {
	case StageConcept, StageEnrich, StageRefine, StagePolish:
		return RoleCreative
	case StageOrchestrate:
		return RoleCoordinator
	case StageProbe:
		return RoleProbe
	default:
		return RoleDesign
	}
}
