package model

import (
	"fmt"
	"strings"
)

const (
	airbyteServerBlockTypeValueConstant     = "Airbyte Server"
	airbyteConnectionBlockTypeValueConstant = "Airbyte Connection"
	dbtCoreBlockTypeValueConstant           = "dbt Core Operation"
	shellOperationBlockTypeValueConstant    = "Shell Operation"
	dbtCliProfileBlockTypeValueConstant     = "dbt CLI Profile"
	secretBlockTypeValueConstant            = "Secret"
	unknownBlockTypeTemplateConstant        = "unknown block type %q"
)

// BlockType is the closed set of orchestration resource kinds.
type BlockType string

// Supported block types.
const (
	BlockTypeAirbyteServer     BlockType = BlockType(airbyteServerBlockTypeValueConstant)
	BlockTypeAirbyteConnection BlockType = BlockType(airbyteConnectionBlockTypeValueConstant)
	BlockTypeDbtCore           BlockType = BlockType(dbtCoreBlockTypeValueConstant)
	BlockTypeShellOperation    BlockType = BlockType(shellOperationBlockTypeValueConstant)
	BlockTypeDbtCliProfile     BlockType = BlockType(dbtCliProfileBlockTypeValueConstant)
	BlockTypeSecret            BlockType = BlockType(secretBlockTypeValueConstant)
)

var knownBlockTypes = map[BlockType]struct{}{
	BlockTypeAirbyteServer:     {},
	BlockTypeAirbyteConnection: {},
	BlockTypeDbtCore:           {},
	BlockTypeShellOperation:    {},
	BlockTypeDbtCliProfile:     {},
	BlockTypeSecret:            {},
}

// UnknownBlockTypeError reports a stored block type outside the supported set.
type UnknownBlockTypeError struct {
	Value string
}

// Error describes the unknown block type.
func (unknownError UnknownBlockTypeError) Error() string {
	return fmt.Sprintf(unknownBlockTypeTemplateConstant, unknownError.Value)
}

// ParseBlockType validates raw block type text.
func ParseBlockType(rawValue string) (BlockType, error) {
	candidate := BlockType(strings.TrimSpace(rawValue))
	if _, known := knownBlockTypes[candidate]; !known {
		return "", UnknownBlockTypeError{Value: rawValue}
	}
	return candidate, nil
}

// TransformationBlockTypes lists the legacy block types reclassified as tasks.
func TransformationBlockTypes() []BlockType {
	return []BlockType{BlockTypeDbtCore, BlockTypeShellOperation}
}
