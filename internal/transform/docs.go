package transform

import "fmt"

// AliasDoc is the description attached to each namespace alias,
// e.g. "Props type alias for {@link Button}.".
func AliasDoc(kind, className string) string {
	return fmt.Sprintf("%s type alias for {@link %s}.", kind, className)
}

// NamespaceDoc is the description attached to the component namespace.
func NamespaceDoc(className string) string {
	return fmt.Sprintf("Event / Prop / Slot type aliases for {@link %s}.", className)
}

// spliceDoc places doc on its own line above a member's full text.
//
// The splice is textual rather than a structured JSDoc node: printers that
// reformat type literals reflow or drop structured doc attachments, while
// text inside the member survives them.
func spliceDoc(doc, fullText string) string {
	return "\n" + doc + "\n" + fullText
}
