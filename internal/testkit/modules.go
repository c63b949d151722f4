package testkit

import (
	"propweave/internal/il"
	"propweave/internal/meta"
)

// ReferenceOptions shapes the runtime module.
type ReferenceOptions struct {
	// StringOverloads adds IsNotNull(string, string) next to the default overload.
	StringOverloads bool
}

// References returns the core, runtime and support modules in that order.
func References(opts ReferenceOptions) []*meta.Module {
	return []*meta.Module{CoreModule(), RuntimeModule(opts), SupportModule()}
}

// CoreModule defines the base class library subset the weaver relies on.
func CoreModule() *meta.Module {
	b := NewModule(CoreScope)
	obj := b.Class("System", "Object", nil)
	obj.Method("Equals", Boolean(), meta.MethodStatic,
		[]*meta.ParameterDef{Param("objA", Object()), Param("objB", Object())},
		il.Create(il.Ldarg0), il.Create(il.Ldarg1), il.Create(il.Ceq), il.Create(il.Ret))
	obj.Method(".ctor", Void(), meta.MethodSpecialName, nil, il.Create(il.Ret))

	b.Class("System", "ValueType", Object())
	b.Class("System", "String", Object()).Flags(meta.TypeSealed)
	for _, name := range []string{"Boolean", "Int32", "Void"} {
		b.Class("System", name, meta.NewTypeRef(CoreScope, "System", "ValueType")).Flags(meta.TypeValueType | meta.TypeSealed)
	}
	b.Class("System", "Exception", Object())
	b.Class("System", "Attribute", Object()).Flags(meta.TypeAbstract)
	b.Class("System", "MulticastDelegate", Object()).Flags(meta.TypeAbstract)
	b.Interface("System.ComponentModel", "INotifyPropertyChanged")

	args := b.Class("System.ComponentModel", "PropertyChangedEventArgs", Object())
	args.Method(".ctor", Void(), meta.MethodSpecialName, []*meta.ParameterDef{Param("propertyName", String())}, il.Create(il.Ret))

	handler := b.Class("System.ComponentModel", "PropertyChangedEventHandler", meta.NewTypeRef(CoreScope, "System", "MulticastDelegate")).Flags(meta.TypeSealed)
	handler.Method("Invoke", Void(), meta.MethodVirtual, []*meta.ParameterDef{Param("sender", Object()), Param("e", EventArgs())})
	return b.Build()
}

// RuntimeModule defines the marker base class and the argument helper.
func RuntimeModule(opts ReferenceOptions) *meta.Module {
	b := NewModule(RuntimeScope, CoreScope)
	model := b.Class("Catel.Data", "ModelBase", Object()).Flags(meta.TypeAbstract).Implements(NotifyInterface())
	model.Method("RaisePropertyChanged", Void(), meta.MethodVirtual, []*meta.ParameterDef{Param("propertyName", String())}, il.Create(il.Ret))

	arg := b.Class("Catel", "Argument", Object()).Flags(meta.TypeAbstract | meta.TypeSealed)
	check := func(name string, typ *meta.TypeRef) {
		arg.Method(name, Void(), meta.MethodStatic, []*meta.ParameterDef{Param("paramName", String()), Param("paramValue", typ)}, il.Create(il.Ret))
	}
	if opts.StringOverloads {
		check("IsNotNull", String())
	}
	check("IsNotNull", Object())
	check("IsNotNullOrEmpty", String())
	return b.Build()
}

// SupportModule defines the build-time attributes.
func SupportModule() *meta.Module {
	b := NewModule(SupportScope, CoreScope)
	attr := meta.NewTypeRef(CoreScope, "System", "Attribute")
	for _, name := range []string{"NoWeavingAttribute", "NotNullAttribute", "NotNullOrEmptyAttribute"} {
		b.Class("Catel.Fody", name, attr).Flags(meta.TypeSealed)
	}
	return b.Build()
}
