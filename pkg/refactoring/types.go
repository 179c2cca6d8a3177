package refactoring

import "slices"

// Type is a refactoring kind. Its value is the display name RefactoringMiner
// reports, which is also the label written to the result file.
type Type string

// Refactoring kinds recognised by smellwalk.
const (
	ExtractMethod              Type = "Extract Method"
	InlineMethod               Type = "Inline Method"
	RenameMethod               Type = "Rename Method"
	MoveMethod                 Type = "Move Method"
	MoveAndRenameMethod        Type = "Move And Rename Method"
	ExtractAndMoveMethod       Type = "Extract And Move Method"
	MoveAndInlineMethod        Type = "Move And Inline Method"
	PullUpMethod               Type = "Pull Up Method"
	PushDownMethod             Type = "Push Down Method"
	MergeMethod                Type = "Merge Method"
	SplitMethod                Type = "Split Method"
	MoveAttribute              Type = "Move Attribute"
	MoveAndRenameAttribute     Type = "Move And Rename Attribute"
	ReplaceAttribute           Type = "Replace Attribute"
	PullUpAttribute            Type = "Pull Up Attribute"
	PushDownAttribute          Type = "Push Down Attribute"
	ExtractAttribute           Type = "Extract Attribute"
	InlineAttribute            Type = "Inline Attribute"
	RenameAttribute            Type = "Rename Attribute"
	EncapsulateAttribute       Type = "Encapsulate Attribute"
	ChangeAttributeType        Type = "Change Attribute Type"
	RenameClass                Type = "Rename Class"
	MoveClass                  Type = "Move Class"
	MoveAndRenameClass         Type = "Move And Rename Class"
	ExtractClass               Type = "Extract Class"
	ExtractSubclass            Type = "Extract Subclass"
	ExtractSuperclass          Type = "Extract Superclass"
	ExtractInterface           Type = "Extract Interface"
	MergeClass                 Type = "Merge Class"
	SplitClass                 Type = "Split Class"
	CollapseHierarchy          Type = "Collapse Hierarchy"
	ConvertAnonymousClassType  Type = "Convert Anonymous Class to Type"
	IntroducePolymorphism      Type = "Introduce Polymorphism"
	MoveSourceFolder           Type = "Move Source Folder"
	RenamePackage              Type = "Rename Package"
	MovePackage                Type = "Move Package"
	SplitPackage               Type = "Split Package"
	MergePackage               Type = "Merge Package"
	ExtractVariable            Type = "Extract Variable"
	InlineVariable             Type = "Inline Variable"
	RenameVariable             Type = "Rename Variable"
	RenameParameter            Type = "Rename Parameter"
	MergeVariable              Type = "Merge Variable"
	MergeParameter             Type = "Merge Parameter"
	SplitVariable              Type = "Split Variable"
	SplitParameter             Type = "Split Parameter"
	ReplaceVariableWithAttr    Type = "Replace Variable With Attribute"
	ParameterizeVariable       Type = "Parameterize Variable"
	ParameterizeAttribute      Type = "Parameterize Attribute"
	LocalizeParameter          Type = "Localize Parameter"
	AddParameter               Type = "Add Parameter"
	RemoveParameter            Type = "Remove Parameter"
	ReorderParameter           Type = "Reorder Parameter"
	ChangeReturnType           Type = "Change Return Type"
	ChangeVariableType         Type = "Change Variable Type"
	ChangeParameterType        Type = "Change Parameter Type"
	ChangeMethodAccessModifier Type = "Change Method Access Modifier"
	ChangeClassAccessModifier  Type = "Change Class Access Modifier"
	ChangeAttrAccessModifier   Type = "Change Attribute Access Modifier"
	MoveCode                   Type = "Move Code"
	ReplaceLoopWithPipeline    Type = "Replace Loop With Pipeline"
	ReplacePipelineWithLoop    Type = "Replace Pipeline With Loop"
	ReplaceAnonymousWithLambda Type = "Replace Anonymous With Lambda"
	MergeConditional           Type = "Merge Conditional"
	SplitConditional           Type = "Split Conditional"
	InvertCondition            Type = "Invert Condition"
	ReplaceConditionalWithTern Type = "Replace Conditional With Ternary"
	TryWithResources           Type = "Try With Resources"
)

var knownTypes = []Type{
	ExtractMethod, InlineMethod, RenameMethod, MoveMethod, MoveAndRenameMethod,
	ExtractAndMoveMethod, MoveAndInlineMethod, PullUpMethod, PushDownMethod, MergeMethod,
	SplitMethod, MoveAttribute, MoveAndRenameAttribute, ReplaceAttribute, PullUpAttribute,
	PushDownAttribute, ExtractAttribute, InlineAttribute, RenameAttribute, EncapsulateAttribute,
	ChangeAttributeType, RenameClass, MoveClass, MoveAndRenameClass, ExtractClass,
	ExtractSubclass, ExtractSuperclass, ExtractInterface, MergeClass, SplitClass,
	CollapseHierarchy, ConvertAnonymousClassType, IntroducePolymorphism, MoveSourceFolder,
	RenamePackage, MovePackage, SplitPackage, MergePackage, ExtractVariable, InlineVariable,
	RenameVariable, RenameParameter, MergeVariable, MergeParameter, SplitVariable,
	SplitParameter, ReplaceVariableWithAttr, ParameterizeVariable, ParameterizeAttribute,
	LocalizeParameter, AddParameter, RemoveParameter, ReorderParameter, ChangeReturnType,
	ChangeVariableType, ChangeParameterType, ChangeMethodAccessModifier,
	ChangeClassAccessModifier, ChangeAttrAccessModifier, MoveCode, ReplaceLoopWithPipeline,
	ReplacePipelineWithLoop, ReplaceAnonymousWithLambda, MergeConditional, SplitConditional,
	InvertCondition, ReplaceConditionalWithTern, TryWithResources,
}

// Known reports whether t is one of the recognised refactoring kinds.
// Miners may report kinds newer than this list; those are carried through
// but can never appear in an admissibility table.
func (t Type) Known() bool {
	return slices.Contains(knownTypes, t)
}

// String returns the display name.
func (t Type) String() string {
	return string(t)
}

// KnownTypes returns a copy of the recognised kinds in declaration order.
func KnownTypes() []Type {
	return slices.Clone(knownTypes)
}
