package vm

import "testing"

// ---------------------------------------------------------------------------
// Closure construction
// ---------------------------------------------------------------------------

func TestNewFunctionDefaults(t *testing.T) {
	h, _ := newTestHeap(t, false)
	fn := h.NewFunction()
	if fn.Name != nil || fn.Arity != 0 || fn.UpvalueCount != 0 {
		t.Errorf("NewFunction = {%v, %d, %d}, want zero fields", fn.Name, fn.Arity, fn.UpvalueCount)
	}
	if len(fn.Chunk.Code) != 0 || len(fn.Chunk.Constants) != 0 {
		t.Error("new function chunk is not empty")
	}
	if fn.Type() != TypeFunction {
		t.Errorf("Type() = %v, want Function", fn.Type())
	}
}

func TestNewClosureSizesUpvalues(t *testing.T) {
	h, _ := newTestHeap(t, false)
	fn := h.NewFunction()
	fn.UpvalueCount = 3
	h.Push(ObjVal(fn))

	closure := h.NewClosure(fn)
	if closure.Function != fn {
		t.Error("closure does not share its function")
	}
	if len(closure.Upvalues) != 3 {
		t.Fatalf("len(Upvalues) = %d, want 3", len(closure.Upvalues))
	}
	for i, uv := range closure.Upvalues {
		if uv != nil {
			t.Errorf("upvalue slot %d = %v, want nil", i, uv)
		}
	}

	other := h.NewClosure(fn)
	if other.Function != closure.Function {
		t.Error("closures over one function do not share it")
	}
}

// ---------------------------------------------------------------------------
// Upvalue lifecycle
// ---------------------------------------------------------------------------

func TestUpvalueOpenAliasesSlot(t *testing.T) {
	h, _ := newTestHeap(t, false)
	h.Push(FromNumber(1))
	uv := h.NewUpvalue(0)

	if !uv.IsOpen() || uv.Slot() != 0 {
		t.Fatalf("new upvalue open=%v slot=%d", uv.IsOpen(), uv.Slot())
	}
	h.Stack().SetSlot(0, FromNumber(2))
	if got := uv.Get(); got != FromNumber(2) {
		t.Errorf("open upvalue read %v, want 2", h.Format(got))
	}
	uv.Set(FromNumber(3))
	if got := h.Stack().Slot(0); got != FromNumber(3) {
		t.Errorf("write through open upvalue left slot at %v", h.Format(got))
	}
}

func TestUpvalueClosePreservesValue(t *testing.T) {
	h, _ := newTestHeap(t, false)
	v := FromNumber(42)
	h.Push(v)
	uv := h.NewUpvalue(0)

	uv.Close()
	h.Stack().SetSlot(0, FromNumber(99))

	if uv.IsOpen() {
		t.Error("upvalue still open after Close")
	}
	if got := uv.Get(); got != v {
		t.Errorf("closed upvalue = %v, want 42", h.Format(got))
	}

	uv.Set(FromNumber(7))
	if got := h.Stack().Slot(0); got != FromNumber(99) {
		t.Errorf("write through closed upvalue reached the stack: %v", h.Format(got))
	}

	uv.Close()
	if got := uv.Get(); got != FromNumber(7) {
		t.Errorf("second Close changed the value to %v", h.Format(got))
	}
}

func TestCaptureUpvalueShares(t *testing.T) {
	h, _ := newTestHeap(t, false)
	h.Push(FromNumber(1))
	h.Push(FromNumber(2))

	a := h.CaptureUpvalue(1)
	b := h.CaptureUpvalue(1)
	if a != b {
		t.Error("two captures of one slot produced distinct upvalues")
	}
	c := h.CaptureUpvalue(0)
	if c == a {
		t.Error("captures of different slots share an upvalue")
	}
	if h.OpenUpvalueCount() != 2 {
		t.Errorf("OpenUpvalueCount() = %d, want 2", h.OpenUpvalueCount())
	}
}

func TestOpenUpvaluesSortedDeepestFirst(t *testing.T) {
	h, _ := newTestHeap(t, false)
	for i := 0; i < 5; i++ {
		h.Push(FromNumber(float64(i)))
	}
	for _, slot := range []int{2, 4, 0, 3, 1} {
		h.CaptureUpvalue(slot)
	}

	want := 4
	for uv := h.openUpvalues; uv != nil; uv = uv.Next {
		if uv.Slot() != want {
			t.Fatalf("open list slot = %d, want %d", uv.Slot(), want)
		}
		want--
	}
	if want != -1 {
		t.Errorf("open list ended early at slot %d", want+1)
	}
}

func TestCloseUpvaluesFrameExit(t *testing.T) {
	h, _ := newTestHeap(t, false)
	// Slots 0-1 belong to the caller, 2-4 to the departing frame.
	for i := 0; i < 5; i++ {
		h.Push(FromNumber(float64(i * 10)))
	}
	outer := h.CaptureUpvalue(1)
	inner := []*Upvalue{h.CaptureUpvalue(2), h.CaptureUpvalue(4), h.CaptureUpvalue(3)}

	h.CloseUpvalues(2)
	h.Stack().Truncate(2)

	for _, uv := range inner {
		if uv.IsOpen() {
			t.Errorf("upvalue for slot %d still open", uv.Slot())
		}
		if got, want := uv.Get(), FromNumber(float64(uv.Slot()*10)); got != want {
			t.Errorf("slot %d closed over %v, want %v", uv.Slot(), h.Format(got), h.Format(want))
		}
	}
	if !outer.IsOpen() {
		t.Error("caller's upvalue was closed")
	}
	if h.OpenUpvalueCount() != 1 {
		t.Errorf("OpenUpvalueCount() = %d, want 1", h.OpenUpvalueCount())
	}

	// Reusing the frame's stack memory must not disturb closed upvalues.
	h.Push(FromNumber(-1))
	h.Push(FromNumber(-1))
	h.Push(FromNumber(-1))
	if got := inner[0].Get(); got != FromNumber(20) {
		t.Errorf("closed upvalue followed reused stack slot: %v", h.Format(got))
	}
}

func TestClosureSurvivesCollection(t *testing.T) {
	h, _ := newTestHeap(t, true)

	fn := h.NewFunction()
	h.Push(ObjVal(fn))
	fn.Name = h.CopyString("counter")
	fn.UpvalueCount = 1

	slot := h.Stack().Len()
	h.Push(FromNumber(5))

	closure := h.NewClosure(fn)
	h.Push(ObjVal(closure))
	closure.Upvalues[0] = h.CaptureUpvalue(slot)

	h.CloseUpvalues(slot)
	// Drop everything but the closure from the stack.
	h.Stack().SetSlot(0, ObjVal(closure))
	h.Stack().Truncate(1)
	h.Collect()

	if h.Deref(ObjVal(closure)) != closure {
		t.Fatal("closure was collected while rooted")
	}
	if h.Deref(ObjVal(fn)) != fn || h.Deref(ObjVal(fn.Name)) != fn.Name {
		t.Error("closure's function or its name was collected")
	}
	if got := closure.Upvalues[0].Get(); got != FromNumber(5) {
		t.Errorf("captured value = %v, want 5", h.Format(got))
	}
}
