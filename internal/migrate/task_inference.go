package migrate

import (
	"strings"

	"github.com/temirov/taskmigrate/internal/model"
)

const schemaSeparatorConstant = "-"

// TaskSlugMatchKind describes how a catalog slug is compared with an inferred value.
type TaskSlugMatchKind string

// Match kinds.
const (
	TaskSlugMatchExact  TaskSlugMatchKind = TaskSlugMatchKind("exact")
	TaskSlugMatchSuffix TaskSlugMatchKind = TaskSlugMatchKind("suffix")
)

// TaskSlugMatch is the catalog lookup derived from a legacy block name.
type TaskSlugMatch struct {
	Kind  TaskSlugMatchKind
	Value string
}

// InferTaskSlug derives the catalog lookup for a legacy transformation block.
//
// Names ending in git-pull map to the git-pull task. Otherwise the text after the last
// "{targetSchema}-" occurrence (or the whole name when absent) is matched as a slug suffix.
// The boolean is false when nothing usable remains; the returned match still carries the
// empty value so callers can report it.
func InferTaskSlug(blockName string, targetSchema string) (TaskSlugMatch, bool) {
	if strings.HasSuffix(blockName, model.TaskSlugGitPull) {
		return TaskSlugMatch{Kind: TaskSlugMatchExact, Value: model.TaskSlugGitPull}, true
	}

	command := blockName
	separator := targetSchema + schemaSeparatorConstant
	if separatorIndex := strings.LastIndex(blockName, separator); separatorIndex >= 0 {
		command = blockName[separatorIndex+len(separator):]
	}

	match := TaskSlugMatch{Kind: TaskSlugMatchSuffix, Value: command}
	return match, len(strings.TrimSpace(command)) > 0
}
