package compiler_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/forge/common/metrics"
	"basegraph.app/forge/internal/compiler"
)

// outputPath is the -o argument of an openscad invocation.
func outputPath(cmd compiler.Command) string {
	for i, a := range cmd.Args {
		if a == "-o" && i+1 < len(cmd.Args) {
			return cmd.Args[i+1]
		}
	}
	return ""
}

var _ = Describe("OpenSCAD", func() {
	var (
		workDir string
		runner  *mockRunner
		c       *compiler.OpenSCAD
		ctx     context.Context
	)

	BeforeEach(func() {
		workDir = GinkgoT().TempDir()
		runner = &mockRunner{}
		c = compiler.New(compiler.Config{Bin: "openscad", Timeout: time.Second, WorkDir: workDir}, runner, metrics.New())
		ctx = context.Background()
	})

	expectWorkDirEmpty := func() {
		entries, err := os.ReadDir(workDir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty(), "compile dir must be removed on every path")
	}

	It("writes the source, runs openscad and returns the mesh", func() {
		runner.runFn = func(_ context.Context, cmd compiler.Command) (compiler.Result, error) {
			src, err := os.ReadFile(cmd.Args[0])
			Expect(err).NotTo(HaveOccurred())
			Expect(string(src)).To(Equal("cube(10);"))
			Expect(filepath.Base(cmd.Args[0])).To(Equal("input.scad"))
			Expect(filepath.Base(outputPath(cmd))).To(Equal("output.stl"))
			return compiler.Result{}, os.WriteFile(outputPath(cmd), []byte("solid forge"), 0o600)
		}

		mesh, err := c.Compile(ctx, "cube(10);")

		Expect(err).NotTo(HaveOccurred())
		Expect(string(mesh)).To(Equal("solid forge"))
		Expect(runner.calls).To(HaveLen(1))
		Expect(runner.calls[0].Name).To(Equal("openscad"))
		expectWorkDirEmpty()
	})

	It("classifies a non-zero exit as a compile error carrying stderr", func() {
		runner.runFn = func(context.Context, compiler.Command) (compiler.Result, error) {
			return compiler.Result{ExitCode: 1, Stderr: []byte("ERROR: Parser error in file input.scad, line 2\n")}, nil
		}

		_, err := c.Compile(ctx, "cone(h=10);")

		var cerr *compiler.Error
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Kind).To(Equal(compiler.FailureCompile))
		Expect(cerr.Diagnostic).To(Equal("ERROR: Parser error in file input.scad, line 2"))
		Expect(errors.Is(err, compiler.ErrCompile)).To(BeTrue())
		expectWorkDirEmpty()
	})

	It("never reports an empty compile diagnostic", func() {
		runner.runFn = func(context.Context, compiler.Command) (compiler.Result, error) {
			return compiler.Result{ExitCode: 3}, nil
		}

		_, err := c.Compile(ctx, "cube(1);")

		var cerr *compiler.Error
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Diagnostic).To(Equal("openscad exited with status 3"))
	})

	It("falls back to stdout when stderr is empty", func() {
		runner.runFn = func(context.Context, compiler.Command) (compiler.Result, error) {
			return compiler.Result{ExitCode: 1, Stdout: []byte("WARNING: undefined module")}, nil
		}

		_, err := c.Compile(ctx, "cube(1);")

		Expect(err).To(MatchError(ContainSubstring("WARNING: undefined module")))
	})

	DescribeTable("reports empty output when the artifact is missing or blank",
		func(write bool) {
			runner.runFn = func(_ context.Context, cmd compiler.Command) (compiler.Result, error) {
				if write {
					Expect(os.WriteFile(outputPath(cmd), nil, 0o600)).To(Succeed())
				}
				return compiler.Result{}, nil
			}

			_, err := c.Compile(ctx, "cube(1);")

			var cerr *compiler.Error
			Expect(errors.As(err, &cerr)).To(BeTrue())
			Expect(cerr.Kind).To(Equal(compiler.FailureEmptyOutput))
			Expect(cerr.Diagnostic).To(Equal("OpenSCAD did not produce output"))
			Expect(errors.Is(err, compiler.ErrEmptyOutput)).To(BeTrue())
			expectWorkDirEmpty()
		},
		Entry("missing", false),
		Entry("zero length", true),
	)

	It("reports a timeout when the deadline passes", func() {
		c = compiler.New(compiler.Config{Timeout: 50 * time.Millisecond, WorkDir: workDir}, runner, nil)
		runner.runFn = func(ctx context.Context, _ compiler.Command) (compiler.Result, error) {
			<-ctx.Done()
			return compiler.Result{ExitCode: -1}, nil
		}

		_, err := c.Compile(ctx, "cube(1);")

		var cerr *compiler.Error
		Expect(errors.As(err, &cerr)).To(BeTrue())
		Expect(cerr.Kind).To(Equal(compiler.FailureTimeout))
		Expect(cerr.Diagnostic).To(Equal(compiler.TimeoutMessage(50 * time.Millisecond)))
		Expect(errors.Is(err, compiler.ErrTimeout)).To(BeTrue())
		expectWorkDirEmpty()
	})

	It("ignores caller cancellation", func() {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		runner.runFn = func(ctx context.Context, cmd compiler.Command) (compiler.Result, error) {
			Expect(ctx.Err()).NotTo(HaveOccurred())
			return compiler.Result{}, os.WriteFile(outputPath(cmd), []byte("solid"), 0o600)
		}

		mesh, err := c.Compile(cancelled, "cube(1);")

		Expect(err).NotTo(HaveOccurred())
		Expect(mesh).NotTo(BeEmpty())
	})

	It("returns a plain error when the binary cannot start", func() {
		runner.runFn = func(context.Context, compiler.Command) (compiler.Result, error) {
			return compiler.Result{ExitCode: -1}, errors.New("exec: \"openscad\": executable file not found in $PATH")
		}

		_, err := c.Compile(ctx, "cube(1);")

		Expect(err).To(HaveOccurred())
		var cerr *compiler.Error
		Expect(errors.As(err, &cerr)).To(BeFalse())
		expectWorkDirEmpty()
	})

	It("returns a plain error when the work dir is unusable", func() {
		c = compiler.New(compiler.Config{WorkDir: filepath.Join(workDir, "missing", "nested")}, runner, nil)

		_, err := c.Compile(ctx, "cube(1);")

		Expect(err).To(MatchError(ContainSubstring("creating compile dir")))
		Expect(runner.calls).To(BeEmpty())
	})
})

var _ = Describe("TimeoutMessage", func() {
	It("matches the user-facing wording at the default limit", func() {
		Expect(compiler.TimeoutMessage(60 * time.Second)).To(Equal(
			"OpenSCAD compilation timed out (>60s). The model may be too complex. Try simplifying your request."))
	})
})
