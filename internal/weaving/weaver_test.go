package weaving

import (
	"context"
	"errors"
	"strings"
	"testing"

	"propweave/internal/config"
	"propweave/internal/diag"
	"propweave/internal/il"
	"propweave/internal/meta"
	"propweave/internal/resolve"
	"propweave/internal/testkit"
)

func weave(app *meta.Module, opts testkit.ReferenceOptions, mutate func(*config.Config)) (*Result, *diag.Bag, error) {
	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	bag := diag.NewBag(256)
	w := &ModuleWeaver{
		Module:   app,
		Host:     resolve.NewModuleSet(testkit.References(opts)...),
		Config:   cfg,
		Reporter: diag.BagReporter{Bag: bag},
	}
	res, err := w.Execute(context.Background())
	return res, bag, err
}

func mustWeave(t *testing.T, app *meta.Module, opts testkit.ReferenceOptions, mutate func(*config.Config)) (*Result, *diag.Bag) {
	t.Helper()
	res, bag, err := weave(app, opts, mutate)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := testkit.CheckBodies(app); err != nil {
		t.Fatalf("woven bodies: %v", err)
	}
	return res, bag
}

func codes(b *il.Body) []string {
	out := make([]string, len(b.Instructions))
	for i, ins := range b.Instructions {
		out[i] = ins.Code.String()
	}
	return out
}

func dumpAll(t *testing.T, m *meta.Module) string {
	t.Helper()
	var sb strings.Builder
	for _, meth := range m.Methods() {
		sb.WriteString(meth.String() + "\n")
		if err := il.Dump(&sb, meth.Body); err != nil {
			t.Fatalf("Dump: %v", err)
		}
	}
	return sb.String()
}

func hasDiag(bag *diag.Bag, code diag.Code, sev diag.Severity) bool {
	for _, d := range bag.Filter(code) {
		if d.Severity == sev {
			return true
		}
	}
	return false
}

// scenario declares B before its base A; B's constructor checks a string
// argument through the loosely typed helper overload.
func scenario() (*meta.Module, *testkit.TypeBuilder, *testkit.TypeBuilder) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope, testkit.SupportScope)
	derived := b.Class("App", "B", meta.NewTypeRef("App", "App", "A"))
	derived.AutoProperty("Y", testkit.String())
	body := append(testkit.CheckCall("IsNotNull", "name", 1, testkit.String()), il.Create(il.Ret))
	derived.Method(".ctor", testkit.Void(), meta.MethodSpecialName, []*meta.ParameterDef{testkit.Param("name", testkit.String())}, body...)
	base := b.Class("App", "A", testkit.ModelBase())
	base.AutoProperty("X", testkit.String())
	return b.Build(), base, derived
}

func TestWeaveModelHierarchy(t *testing.T) {
	app, base, derived := scenario()
	res, bag := mustWeave(t, app, testkit.ReferenceOptions{}, nil)

	if strings.Join(res.Order, ",") != "App.A,App.B" {
		t.Fatalf("order = %v, want [App.A App.B]", res.Order)
	}
	want := []string{
		"ldarg.0", "ldfld", "ldarg.1", "call", "ldc.i4.0", "ceq", "stloc",
		"ldarg.0", "ldarg.1", "stfld",
		"ldloc", "brfalse", "ldarg.0", "ldstr", "callvirt", "ret",
	}
	for _, def := range []*meta.TypeDef{base.Def(), derived.Def()} {
		p := def.Properties[0]
		got := codes(p.Setter.Body)
		if strings.Join(got, " ") != strings.Join(want, " ") {
			t.Fatalf("%s setter = %v\nwant %v", p, got, want)
		}
		raise := p.Setter.Body.Instructions[14].Operand.(*meta.MethodRef)
		if raise.Name != "RaisePropertyChanged" || !raise.DeclaringType.Is("Catel.Data.ModelBase") {
			t.Fatalf("%s raises through %s", p, raise)
		}
		if name := p.Setter.Body.Instructions[13].Operand; name != p.Name {
			t.Fatalf("%s notifies %v", p, name)
		}
	}
	if len(res.Woven) != 2 {
		t.Fatalf("woven = %+v, want X and Y", res.Woven)
	}

	// no string overload: the call stays on the default one
	if len(res.Calls) != 1 || res.Calls[0].Exact || res.Fallbacks() != 1 {
		t.Fatalf("calls = %+v", res.Calls)
	}
	if !hasDiag(bag, diag.WeaveOverloadFallback, diag.SevInfo) {
		t.Fatalf("missing fallback info: %v", bag.Items())
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	if app.FindAssemblyRef(testkit.SupportScope) != nil {
		t.Fatalf("support reference kept")
	}
}

func TestWeaveBindsExactHelperOverload(t *testing.T) {
	app, _, derived := scenario()
	res, bag := mustWeave(t, app, testkit.ReferenceOptions{StringOverloads: true}, nil)

	ctor := derived.Def().FindMethod(".ctor", "System.String")
	call := ctor.Body.Find(il.Call)[0].Operand.(*meta.MethodRef)
	if !call.Parameters[1].Is("System.String") {
		t.Fatalf("call bound to %s, want the string overload", call)
	}
	if len(res.Calls) != 1 || !res.Calls[0].Exact || res.Fallbacks() != 0 {
		t.Fatalf("calls = %+v", res.Calls)
	}
	if len(bag.Filter(diag.WeaveCallRebound)) != 1 {
		t.Fatalf("rebind not reported: %v", bag.Items())
	}
}

func TestOverloadFallbackStrictness(t *testing.T) {
	tests := []struct {
		name      string
		policy    config.Strictness
		code      diag.Code
		sev       diag.Severity
		unchanged bool
	}{
		{"lenient", config.Lenient, diag.WeaveOverloadFallback, diag.SevInfo, false},
		{"warn", config.Warn, diag.WeaveOverloadFallback, diag.SevWarning, false},
		{"strict", config.Strict, diag.WeaveOverloadNotFound, diag.SevError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app, _, _ := scenario()
			res, bag := mustWeave(t, app, testkit.ReferenceOptions{}, func(c *config.Config) {
				c.Policy.OverloadFallback = tt.policy
			})
			if !hasDiag(bag, tt.code, tt.sev) {
				t.Fatalf("want %s %s, got %v", tt.sev, tt.code.ID(), bag.Items())
			}
			if got := res.Calls[0].To == ""; got != tt.unchanged {
				t.Fatalf("call record %+v", res.Calls[0])
			}
		})
	}
}

func TestStrictPolicyIgnoresInjectedChecks(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope, testkit.SupportScope)
	model := b.Class("App", "Service", testkit.ModelBase())
	body := append(testkit.CheckCall("IsNotNull", "name", 1, testkit.String()), il.Create(il.Ret))
	meth := model.Method("Greet", testkit.Void(), 0, []*meta.ParameterDef{
		testkit.Param("name", testkit.String()),
		testkit.Param("times", testkit.Int32(), testkit.Attr(testkit.NotNull())),
	}, body...)
	app := b.Build()

	res, bag := mustWeave(t, app, testkit.ReferenceOptions{StringOverloads: true}, func(c *config.Config) {
		c.Policy.OverloadFallback = config.Strict
	})
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Items())
	}
	if len(res.Calls) != 1 || !res.Calls[0].Exact || res.Calls[0].Checked != "System.String" {
		t.Fatalf("calls = %+v", res.Calls)
	}
	if len(bag.Filter(diag.WeaveOverloadFallback)) != 0 {
		t.Fatalf("injected check graded as fallback: %v", bag.Items())
	}
	if n := len(meth.Body.Find(il.Call)); n != 2 {
		t.Fatalf("helper calls = %d, want 2", n)
	}
}

func TestValueTypeCallKeepsBox(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope)
	m := b.Class("App", "Counter", testkit.ModelBase())
	body := append(testkit.CheckCall("IsNotNull", "count", 1, testkit.Int32()), il.Create(il.Ret))
	meth := m.Method("Set", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("count", testkit.Int32())}, body...)
	app := b.Build()

	res, _ := mustWeave(t, app, testkit.ReferenceOptions{StringOverloads: true}, nil)
	if got := strings.Join(codes(meth.Body), " "); got != "ldstr ldarg.1 box call ret" {
		t.Fatalf("body = %s", got)
	}
	if res.Calls[0].Checked != "System.Int32" || res.Calls[0].Exact {
		t.Fatalf("call = %+v", res.Calls[0])
	}
}

func TestNotifyPreservesOriginalStatements(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope)
	model := b.Class("App", "Model", testkit.ModelBase())
	field := model.Field("_title", testkit.String())
	logger := model.Method("Log", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("text", testkit.String())}, il.Create(il.Ret))
	original := []*il.Instruction{
		il.Create(il.Ldarg0),
		il.Create(il.Ldarg1),
		il.CreateOperand(il.Stfld, field.Ref()),
		il.Create(il.Ldarg0),
		il.CreateOperand(il.Ldstr, "title set"),
		il.CreateOperand(il.Call, logger.Ref()),
		il.Create(il.Ret),
	}
	getter := model.Method("get_Title", testkit.String(), 0, nil,
		il.Create(il.Ldarg0), il.CreateOperand(il.Ldfld, field.Ref()), il.Create(il.Ret))
	setter := model.Method("set_Title", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("value", testkit.String())}, original...)
	model.Property("Title", testkit.String(), getter, setter)
	app := b.Build()

	mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	last := -1
	for _, ins := range original {
		idx := setter.Body.IndexOf(ins)
		if idx <= last {
			t.Fatalf("%s moved out of order (index %d after %d)", il.Format(ins), idx, last)
		}
		last = idx
	}
	if n := len(setter.Body.Find(il.Callvirt)); n != 1 {
		t.Fatalf("notify calls = %d, want 1", n)
	}
}

func TestNotifyRetargetsBranchesToReturn(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope)
	model := b.Class("App", "Model", testkit.ModelBase())
	field := model.Field("_name", testkit.String())
	ret := il.Create(il.Ret)
	early := il.CreateOperand(il.Brfalse, ret)
	getter := model.Method("get_Name", testkit.String(), 0, nil,
		il.Create(il.Ldarg0), il.CreateOperand(il.Ldfld, field.Ref()), il.Create(il.Ret))
	setter := model.Method("set_Name", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("value", testkit.String())},
		il.Create(il.Ldarg1),
		early,
		il.Create(il.Ldarg0),
		il.Create(il.Ldarg1),
		il.CreateOperand(il.Stfld, field.Ref()),
		ret,
	)
	model.Property("Name", testkit.String(), getter, setter)
	app := b.Build()

	mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	target := early.Target()
	if target.Code != il.Ldloc {
		t.Fatalf("early exit jumps to %s, want the notify block", il.Format(target))
	}
	if prev := setter.Body.Previous(ret); prev.Code != il.Callvirt {
		t.Fatalf("ret preceded by %s", il.Format(prev))
	}
}

func TestNotifyBeforeEveryReturn(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope)
	model := b.Class("App", "Model", testkit.ModelBase())
	logger := model.Method("Log", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("text", testkit.String())}, il.Create(il.Ret))
	store := il.Create(il.Ldarg0)
	setter := model.Method("set_Name", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("value", testkit.String())},
		il.Create(il.Ldarg1),
		il.CreateOperand(il.Brtrue, store),
		il.Create(il.Ret),
		store,
		il.Create(il.Ldarg1),
		il.CreateOperand(il.Call, logger.Ref()),
		il.Create(il.Ret),
	)
	model.Property("Name", testkit.String(), nil, setter)
	app := b.Build()

	mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	rets := setter.Body.Find(il.Ret)
	if len(rets) != 2 {
		t.Fatalf("rets = %d", len(rets))
	}
	for _, r := range rets {
		if prev := setter.Body.Previous(r); prev.Code != il.Callvirt {
			t.Fatalf("ret at %d preceded by %s", setter.Body.IndexOf(r), il.Format(prev))
		}
	}
	// no backing field and no getter: the value always counts as changed
	if got := codes(setter.Body)[:2]; got[0] != "ldc.i4.1" || got[1] != "stloc" {
		t.Fatalf("prologue = %v", got)
	}
}

func TestNotifyBoxesValueTypes(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope)
	p := b.Class("App", "Counter", testkit.ModelBase()).AutoProperty("Count", testkit.Int32())
	app := b.Build()

	mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	got := strings.Join(codes(p.Setter.Body)[:6], " ")
	if got != "ldarg.0 ldfld box ldarg.1 box call" {
		t.Fatalf("prologue = %s", got)
	}
}

func TestInjectsNotifyInfrastructure(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope)
	root := b.Class("App", "Observable", testkit.Object()).Implements(testkit.NotifyInterface())
	root.Field("PropertyChanged", testkit.EventHandler())
	root.AutoProperty("Name", testkit.String())
	child := b.Class("App", "Child", root.Ref())
	child.AutoProperty("Age", testkit.Int32())
	app := b.Build()

	res, bag := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	if len(res.Injected) != 1 {
		t.Fatalf("injected = %v, want one method", res.Injected)
	}
	raise := root.Def().FindMethod("RaisePropertyChanged", "System.String")
	if raise == nil || !raise.IsVirtual() {
		t.Fatalf("RaisePropertyChanged not injected into %s", root.Def())
	}
	setter := child.Def().Properties[0].Setter
	calls := setter.Body.Find(il.Callvirt)
	if len(calls) != 1 || !calls[0].Operand.(*meta.MethodRef).DeclaringType.Is("App.Observable") {
		t.Fatalf("child raises through %v", calls)
	}
	if len(bag.Filter(diag.WeaveInfraInjected)) != 1 {
		t.Fatalf("injection not reported: %v", bag.Items())
	}
}

func TestMissingDispatchSkipsMember(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope)
	lonely := b.Class("App", "Lonely", testkit.Object()).Implements(testkit.NotifyInterface())
	p := lonely.AutoProperty("Name", testkit.String())
	app := b.Build()
	before := dumpAll(t, app)

	res, bag := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	if len(res.Skipped) != 1 || res.Skipped[0].Code != diag.WeaveMissingDispatch {
		t.Fatalf("skipped = %+v", res.Skipped)
	}
	ws := bag.Filter(diag.WeaveMissingDispatch)
	if len(ws) != 1 || ws[0].Primary != p.Span {
		t.Fatalf("warning = %+v, want one at %v", ws, p.Span)
	}
	if after := dumpAll(t, app); after != before {
		t.Fatalf("module changed:\n%s", after)
	}
}

func TestValidationPrologue(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope, testkit.SupportScope)
	model := b.Class("App", "Person", testkit.ModelBase())
	p := model.AutoProperty("Name", testkit.String(), testkit.Attr(testkit.NotNull()))
	app := b.Build()

	res, _ := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	head := p.Setter.Body.Instructions[:4]
	if head[0].Code != il.Ldstr || head[0].Operand != "value" || head[1].Code != il.Ldarg1 || head[2].Code != il.Call {
		t.Fatalf("prologue = %v", codes(p.Setter.Body))
	}
	if head[3].Code != il.Ldarg0 {
		t.Fatalf("notify prologue should follow the check, got %s", il.Format(head[3]))
	}
	rec := res.Woven[0]
	if len(rec.Changes) != 2 || len(rec.Checks) != 1 || rec.Checks[0] != "IsNotNull(System.Object)" {
		t.Fatalf("record = %+v", rec)
	}
	if len(p.Attributes) != 0 || res.RemovedAttributes != 1 {
		t.Fatalf("attributes left %v, removed %d", p.Attributes, res.RemovedAttributes)
	}
}

func TestArgumentWeaverChecksParameters(t *testing.T) {
	b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope, testkit.SupportScope)
	model := b.Class("App", "Service", testkit.ModelBase())
	meth := model.Method("Greet", testkit.Void(), 0, []*meta.ParameterDef{
		testkit.Param("name", testkit.String(), testkit.Attr(testkit.NotEmpty())),
		testkit.Param("times", testkit.Int32(), testkit.Attr(testkit.NotNull())),
	}, il.Create(il.Ret))
	app := b.Build()

	res, _ := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
	want := "ldstr ldarg.1 call ldstr ldarg.2 box call ret"
	if got := strings.Join(codes(meth.Body), " "); got != want {
		t.Fatalf("body = %s, want %s", got, want)
	}
	rec := res.Woven[0]
	if strings.Join(rec.Checks, ",") != "IsNotNullOrEmpty(System.String),IsNotNull(System.Object)" {
		t.Fatalf("checks = %v", rec.Checks)
	}
}

func TestReferenceCleaner(t *testing.T) {
	t.Run("still used", func(t *testing.T) {
		b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope, testkit.SupportScope)
		b.Class("App", "Holder", testkit.Object()).Field("kind", testkit.NoWeaving())
		app := b.Build()
		res, bag := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
		if app.FindAssemblyRef(testkit.SupportScope) == nil || len(res.RemovedReferences) != 0 {
			t.Fatalf("reference removed while still used")
		}
		if !hasDiag(bag, diag.CleanReferenceStillUsed, diag.SevWarning) {
			t.Fatalf("missing warning: %v", bag.Items())
		}
	})
	t.Run("absent", func(t *testing.T) {
		b := testkit.NewModule("App", testkit.CoreScope)
		app := b.Build()
		_, bag := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
		if !hasDiag(bag, diag.CleanNothingToRemove, diag.SevInfo) || bag.HasErrors() {
			t.Fatalf("diagnostics = %v", bag.Items())
		}
	})
	t.Run("exclusion attribute", func(t *testing.T) {
		b := testkit.NewModule("App", testkit.CoreScope, testkit.RuntimeScope, testkit.SupportScope)
		p := b.Class("App", "Model", testkit.ModelBase()).AutoProperty("Raw", testkit.String(), testkit.Attr(testkit.NoWeaving()))
		app := b.Build()
		res, _ := mustWeave(t, app, testkit.ReferenceOptions{}, nil)
		if len(res.Woven) != 0 || p.Setter.Body.Len() != 4 {
			t.Fatalf("excluded property woven: %+v", res.Woven)
		}
		if res.RemovedAttributes != 1 || len(res.RemovedReferences) != 1 {
			t.Fatalf("removed %d attributes, refs %v", res.RemovedAttributes, res.RemovedReferences)
		}
	})
}

func TestFatalResolutionLeavesModuleUntouched(t *testing.T) {
	app, _, derived := scenario()
	// a helper call into an assembly nobody can provide
	missing := &meta.MethodRef{
		DeclaringType: meta.NewTypeRef("Missing.Assembly", "Catel", "Argument"),
		Name:          "IsNotNull",
		ReturnType:    testkit.Void(),
		Parameters:    []*meta.TypeRef{testkit.String(), testkit.Object()},
	}
	derived.Method("Reset", testkit.Void(), 0, []*meta.ParameterDef{testkit.Param("v", testkit.String())},
		il.CreateOperand(il.Ldstr, "v"), il.Create(il.Ldarg1), il.CreateOperand(il.Call, missing), il.Create(il.Ret))
	before := dumpAll(t, app)
	methods := len(app.Methods())

	res, bag, err := weave(app, testkit.ReferenceOptions{}, nil)
	if err == nil || res != nil {
		t.Fatalf("want abort, got %+v", res)
	}
	re, ok := resolve.AsResolutionError(err)
	if !ok || re.Name != "[Missing.Assembly]Catel.Argument" || !errors.Is(err, resolve.ErrModuleNotFound) {
		t.Fatalf("err = %v", err)
	}
	if after := dumpAll(t, app); after != before || len(app.Methods()) != methods {
		t.Fatalf("module changed by aborted run:\n%s", after)
	}
	if !hasDiag(bag, diag.ResUnresolved, diag.SevError) {
		t.Fatalf("abort not reported: %v", bag.Items())
	}
}

func TestMissingCoreLibraryAborts(t *testing.T) {
	app, _, _ := scenario()
	w := &ModuleWeaver{
		Module: app,
		Host:   resolve.NewModuleSet(testkit.RuntimeModule(testkit.ReferenceOptions{})),
		Config: config.Default(),
	}
	if _, err := w.Execute(context.Background()); !errors.Is(err, resolve.ErrModuleNotFound) {
		t.Fatalf("err = %v, want missing core module", err)
	}
}

func TestDisabledFeatures(t *testing.T) {
	app, base, _ := scenario()
	res, bag := mustWeave(t, app, testkit.ReferenceOptions{}, func(c *config.Config) {
		c.Features = config.Features{}
	})
	if len(res.Woven) != 0 || len(res.Calls) != 0 || base.Def().Properties[0].Setter.Body.Len() != 4 {
		t.Fatalf("disabled run changed the module: %+v", res)
	}
	if len(bag.Filter(diag.CfgFeatureOff)) != 4 {
		t.Fatalf("feature notices = %v", bag.Items())
	}
	if strings.Join(res.Order, ",") != "App.A,App.B" {
		t.Fatalf("order = %v", res.Order)
	}
}

func TestCallbackLoggerReceivesDiagnostics(t *testing.T) {
	app, _, _ := scenario()
	var infos, warnings []string
	logger := diag.CallbackLogger{
		LogInfo:    func(msg string) { infos = append(infos, msg) },
		LogWarning: func(msg string) { warnings = append(warnings, msg) },
	}
	w := &ModuleWeaver{
		Module:   app,
		Host:     resolve.NewModuleSet(testkit.References(testkit.ReferenceOptions{})...),
		Config:   config.Default(),
		Reporter: logger,
	}
	if _, err := w.Execute(context.Background()); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	found := false
	for _, m := range infos {
		if strings.HasPrefix(m, "WVE1007: ") {
			found = true
		}
	}
	if !found || len(warnings) != 0 {
		t.Fatalf("infos = %v, warnings = %v", infos, warnings)
	}
}

func TestPlanLeavesModuleUntouched(t *testing.T) {
	app, _, _ := scenario()
	before := dumpAll(t, app)
	g, err := Plan(context.Background(), app, resolve.NewModuleSet(testkit.References(testkit.ReferenceOptions{})...), config.Default())
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	var order []string
	for _, n := range g.Nodes() {
		order = append(order, n.Type.FullName())
	}
	if strings.Join(order, ",") != "App.A,App.B" {
		t.Fatalf("order = %v", order)
	}
	if dumpAll(t, app) != before {
		t.Fatalf("Plan modified the module")
	}
}
