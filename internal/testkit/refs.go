package testkit

import "propweave/internal/meta"

// Module names matching config.Default conventions.
const (
	CoreScope    = "System.Runtime"
	RuntimeScope = "Catel.Core"
	SupportScope = "Catel.Fody.Attributes"
)

func Object() *meta.TypeRef  { return meta.NewTypeRef(CoreScope, "System", "Object") }
func String() *meta.TypeRef  { return meta.NewTypeRef(CoreScope, "System", "String") }
func Void() *meta.TypeRef    { return meta.NewTypeRef(CoreScope, "System", "Void") }
func Boolean() *meta.TypeRef { return valueRef("Boolean") }
func Int32() *meta.TypeRef   { return valueRef("Int32") }

func Exception() *meta.TypeRef { return meta.NewTypeRef(CoreScope, "System", "Exception") }

func NotifyInterface() *meta.TypeRef {
	return meta.NewTypeRef(CoreScope, "System.ComponentModel", "INotifyPropertyChanged")
}

func EventArgs() *meta.TypeRef {
	return meta.NewTypeRef(CoreScope, "System.ComponentModel", "PropertyChangedEventArgs")
}

func EventHandler() *meta.TypeRef {
	return meta.NewTypeRef(CoreScope, "System.ComponentModel", "PropertyChangedEventHandler")
}

func ModelBase() *meta.TypeRef { return meta.NewTypeRef(RuntimeScope, "Catel.Data", "ModelBase") }
func Argument() *meta.TypeRef  { return meta.NewTypeRef(RuntimeScope, "Catel", "Argument") }

func NoWeaving() *meta.TypeRef { return supportRef("NoWeavingAttribute") }
func NotNull() *meta.TypeRef   { return supportRef("NotNullAttribute") }
func NotEmpty() *meta.TypeRef  { return supportRef("NotNullOrEmptyAttribute") }

// Attr builds an attribute application of typ.
func Attr(typ *meta.TypeRef, args ...string) *meta.CustomAttribute {
	return &meta.CustomAttribute{AttributeType: typ, Args: args}
}

func valueRef(name string) *meta.TypeRef {
	r := meta.NewTypeRef(CoreScope, "System", name)
	r.IsValueType = true
	return r
}

func supportRef(name string) *meta.TypeRef {
	return meta.NewTypeRef(SupportScope, "Catel.Fody", name)
}
