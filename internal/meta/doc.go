// Package meta models a loaded module: type references and definitions,
// members, attributes and assembly references. Method bodies are il.Body
// values whose operands are *TypeRef, *FieldRef and *MethodRef.
package meta
