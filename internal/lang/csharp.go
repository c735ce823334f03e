package lang

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Node types of the C# grammar used by the analysis.
const (
	CompilationUnit            = "compilation_unit"
	NamespaceDeclaration       = "namespace_declaration"
	FileScopedNamespace        = "file_scoped_namespace_declaration"
	UsingDirective             = "using_directive"
	ClassDeclaration           = "class_declaration"
	StructDeclaration          = "struct_declaration"
	InterfaceDeclaration       = "interface_declaration"
	RecordDeclaration          = "record_declaration"
	RecordStructDeclaration    = "record_struct_declaration"
	EnumDeclaration            = "enum_declaration"
	DeclarationList            = "declaration_list"
	BaseList                   = "base_list"
	TypeParameterList          = "type_parameter_list"
	TypeParameterNode          = "type_parameter"
	FieldDeclaration           = "field_declaration"
	PropertyDeclaration        = "property_declaration"
	MethodDeclaration          = "method_declaration"
	ConstructorDeclaration     = "constructor_declaration"
	LocalFunctionStatement     = "local_function_statement"
	ParameterList              = "parameter_list"
	ParameterNode              = "parameter"
	VariableDeclaration        = "variable_declaration"
	VariableDeclarator         = "variable_declarator"
	LocalDeclarationStatement  = "local_declaration_statement"
	ObjectCreationExpression   = "object_creation_expression"
	InvocationExpression       = "invocation_expression"
	MemberAccessExpression     = "member_access_expression"
	ArgumentList               = "argument_list"
	ArgumentNode               = "argument"
	LambdaExpression           = "lambda_expression"
	ImplicitParameter          = "implicit_parameter"
	ParenthesizedExpression    = "parenthesized_expression"
	CastExpression             = "cast_expression"
	EqualsValueClause          = "equals_value_clause"
	Identifier                 = "identifier"
	GenericName                = "generic_name"
	QualifiedName              = "qualified_name"
	PredefinedType             = "predefined_type"
	NullableType               = "nullable_type"
	ArrayType                  = "array_type"
	ImplicitType               = "implicit_type"
	TypeArgumentList           = "type_argument_list"
	ThisExpression             = "this_expression"
	BaseExpression             = "base_expression"
	PrimaryConstructorBaseType = "primary_constructor_base_type"
)

// TypeDeclarations lists the node types that declare a named type.
var TypeDeclarations = []string{
	ClassDeclaration,
	StructDeclaration,
	InterfaceDeclaration,
	RecordDeclaration,
	RecordStructDeclaration,
	EnumDeclaration,
}

// IsTypeDeclaration reports whether node declares a named type.
func IsTypeDeclaration(node *sitter.Node) bool {
	for _, t := range TypeDeclarations {
		if node.Type() == t {
			return true
		}
	}
	return false
}

// IsThis reports whether node is the `this` keyword expression. Older
// grammar versions name it this_expression, newer ones expose the keyword.
func IsThis(node *sitter.Node) bool {
	return node.Type() == ThisExpression || node.Type() == "this"
}

// IsBase reports whether node is the `base` keyword expression.
func IsBase(node *sitter.Node) bool {
	return node.Type() == BaseExpression || node.Type() == "base"
}

// DeclarationName returns the declared identifier of a type, member or
// parameter declaration.
func DeclarationName(node *sitter.Node, source []byte) string {
	if n := node.ChildByFieldName("name"); n != nil {
		return NodeText(n, source)
	}
	if n := FirstChildOfType(node, Identifier); n != nil {
		return NodeText(n, source)
	}
	return ""
}

// SimpleName returns the identifier of an identifier or generic_name node,
// and the rightmost identifier of a qualified name.
func SimpleName(node *sitter.Node, source []byte) string {
	switch node.Type() {
	case Identifier:
		return NodeText(node, source)
	case GenericName:
		if id := FirstChildOfType(node, Identifier); id != nil {
			return NodeText(id, source)
		}
		text := NodeText(node, source)
		if i := strings.IndexByte(text, '<'); i >= 0 {
			return strings.TrimSpace(text[:i])
		}
		return text
	case QualifiedName:
		if n := node.ChildByFieldName("name"); n != nil {
			return SimpleName(n, source)
		}
		children := NamedChildren(node)
		if len(children) > 0 {
			return SimpleName(children[len(children)-1], source)
		}
	}
	return CollapseWhitespace(NodeText(node, source))
}

// TypeArguments returns the type argument nodes of a generic_name, or nil.
func TypeArguments(node *sitter.Node) []*sitter.Node {
	if node.Type() == QualifiedName {
		if n := node.ChildByFieldName("name"); n != nil {
			return TypeArguments(n)
		}
		children := NamedChildren(node)
		if len(children) > 0 {
			return TypeArguments(children[len(children)-1])
		}
		return nil
	}
	if node.Type() != GenericName {
		return nil
	}
	list := FirstChildOfType(node, TypeArgumentList)
	if list == nil {
		return nil
	}
	return NamedChildren(list)
}

// LambdaParameters returns the parameter names of a lambda expression,
// covering both `p => ...` and `(p, q) => ...`.
func LambdaParameters(lambda *sitter.Node, source []byte) []string {
	params := lambda.ChildByFieldName("parameters")
	if params == nil {
		// The parameter list is the node right before the arrow token.
		for i := 0; i < int(lambda.ChildCount()); i++ {
			c := lambda.Child(i)
			if c.Type() == "=>" {
				break
			}
			if c.IsNamed() {
				params = c
			}
		}
	}
	if params == nil {
		return nil
	}
	switch params.Type() {
	case Identifier, ImplicitParameter:
		return []string{NodeText(params, source)}
	case ParameterList:
		var names []string
		for _, p := range ChildrenOfType(params, ParameterNode) {
			if name := DeclarationName(p, source); name != "" {
				names = append(names, name)
			}
		}
		return names
	}
	return nil
}

// MethodReturnType returns the return type node of a method declaration.
// The field was renamed from "type" to "returns" across grammar versions.
func MethodReturnType(method *sitter.Node) *sitter.Node {
	return Field(method, "returns", "type")
}
