package lang

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phobologic/declscan/internal/classify"
)

// declarations parses src as the named language and returns one line per
// classified declaration: "Class.name kind [static] [async]".
func declarations(t *testing.T, langName, ext, src string) ([]string, []string) {
	t.Helper()

	l, ok := Lookup(langName)
	require.True(t, ok, "language %s not registered", langName)

	parser := l.NewParser(ext)
	source := []byte(src)
	tree, err := parser.ParseCtx(context.Background(), nil, source)
	require.NoError(t, err)
	require.False(t, tree.RootNode().HasError(), "fixture has syntax errors:\n%s", tree.RootNode().String())

	res, err := classify.Classify(l.Convert(tree.RootNode(), source), classify.Options{})
	require.NoError(t, err)

	var out []string
	for _, d := range res.Declarations {
		s := fmt.Sprintf("%s %s", d.QualifiedName(), d.Kind)
		if d.IsStatic {
			s += " static"
		}
		if d.IsAsync {
			s += " async"
		}
		out = append(out, s)
	}
	return out, res.Classes
}

func TestForExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		ext  string
		want string
	}{
		{".py", "python"},
		{".js", "javascript"},
		{".mjs", "javascript"},
		{".ts", "typescript"},
		{".tsx", "typescript"},
		{".java", "java"},
		{".c", "c"},
		{".h", "c"},
		{".hpp", "cpp"},
		{".rs", "rust"},
		{".go", "go"},
		{".rb", "ruby"},
		{".txt", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestLookupAliases(t *testing.T) {
	t.Parallel()

	for alias, want := range map[string]string{
		"js": "javascript", "TS": "typescript", "c++": "cpp", "py": "python",
		"rs": "rust", "Java": "java", ".h": "c", ".TSX": "typescript",
	} {
		l, ok := Lookup(alias)
		if assert.True(t, ok, alias) {
			assert.Equal(t, want, l.Name)
		}
	}
	_, ok := Lookup("cobol")
	assert.False(t, ok)
	_, ok = Lookup(".cob")
	assert.False(t, ok)
}

func TestLanguagesRegistered(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"python", "javascript", "typescript", "java", "c", "cpp", "rust"} {
		l, ok := Languages[name]
		if !ok {
			t.Fatalf("%s language not registered", name)
		}
		if l.Grammar("") == nil {
			t.Errorf("%s grammar is nil", name)
		}
	}
	assert.NotEqual(t, Languages["typescript"].Grammar(".ts"), Languages["typescript"].Grammar(".tsx"))
}

func TestPython(t *testing.T) {
	t.Parallel()

	src := `
import functools

def simple_function():
    pass

async def async_function():
    await other()

lambda_function = lambda x: x * 2

def outer():
    def wrapper():
        pass
    return wrapper

class TestClass:
    def __init__(self):
        self.x = 1

    def instance_method(self):
        pass

    @staticmethod
    def static_method():
        pass

    @classmethod
    def class_method(cls):
        pass

    @property
    def prop(self):
        return self.x

    @prop.setter
    def prop(self, v):
        self.x = v

    @functools.cached_property
    def cached(self):
        return 1

    async def fetch(self):
        pass

    class Inner:
        def inner_method(self):
            pass

if True:
    def conditional():
        pass
`
	got, classes := declarations(t, "python", ".py", src)
	assert.Equal(t, []string{
		"simple_function function",
		"async_function function async",
		"lambda_function arrow",
		"outer function",
		"TestClass.__init__ constructor",
		"TestClass.instance_method method",
		"TestClass.static_method method static",
		"TestClass.class_method method",
		"TestClass.prop property",
		"TestClass.prop property",
		"TestClass.cached property",
		"TestClass.fetch method async",
		"TestClass.Inner.inner_method method",
		"conditional function",
	}, got)
	assert.Equal(t, []string{"TestClass", "TestClass.Inner"}, classes)
}

func TestJavaScript(t *testing.T) {
	t.Parallel()

	src := `
function regularFunction() {
  function nested() {}
}

async function asyncFunction() {}

export const processData = (data) => data.map(x => x * 2);

const named = function () {};

let later;
later = async () => {};

const obj = { method() {} };

export class Person {
  constructor(name) { this.name = name; }
  static create(name) { return new Person(name); }
  async load() {}
  get name() { return this._name; }
  set name(v) { this._name = v; }
  greet() {}
  handler = () => {};
}
`
	got, classes := declarations(t, "javascript", ".js", src)
	assert.Equal(t, []string{
		"regularFunction function",
		"asyncFunction function async",
		"processData arrow",
		"named function",
		"later arrow async",
		"Person.constructor constructor",
		"Person.create method static",
		"Person.load method async",
		"Person.name getter",
		"Person.name property",
		"Person.greet method",
	}, got)
	assert.Equal(t, []string{"Person"}, classes)
}

func TestTypeScript(t *testing.T) {
	t.Parallel()

	src := `
interface Shape { area(): number; }

export abstract class Base {
  abstract describe(): string;
  protected constructor(readonly id: string) {}
  public static of(id: string): Base { return null as any; }
}

namespace Util {
  export function helper(): void {}
}

export const add = (a: number, b: number): number => a + b;
`
	got, classes := declarations(t, "typescript", ".ts", src)
	assert.Equal(t, []string{
		"Base.constructor constructor",
		"Base.of method static",
		"helper function",
		"add arrow",
	}, got)
	assert.Equal(t, []string{"Base"}, classes)
}

func TestTSX(t *testing.T) {
	t.Parallel()

	src := `
export function App() {
  return <div className="app">hello</div>;
}
`
	got, _ := declarations(t, "typescript", ".tsx", src)
	assert.Equal(t, []string{"App function"}, got)
}

func TestJava(t *testing.T) {
	t.Parallel()

	src := `
package demo;

public class Point {
    private final int x;

    public Point(int x) { this.x = x; }

    public int getX() { return x; }

    public static Point origin() { return new Point(0); }

    public Runnable task() {
        return new Runnable() {
            public void run() {}
        };
    }

    enum Color {
        RED,
        GREEN {
            String label() { return "green"; }
        };
        Color() {}
        String label() { return name(); }
    }
}

interface Named {
    String name();
    default String upper() { return name().toUpperCase(); }
}
`
	got, classes := declarations(t, "java", ".java", src)
	assert.Equal(t, []string{
		"Point.Point constructor",
		"Point.getX method",
		"Point.origin method static",
		"Point.task method",
		"Point.Color.Color constructor",
		"Point.Color.label method",
		"Named.name method",
		"Named.upper method",
	}, got)
	assert.Equal(t, []string{"Point", "Point.Color", "Named"}, classes)
}

func TestC(t *testing.T) {
	t.Parallel()

	src := `
#include <stdio.h>

#define SQUARE(x) ((x) * (x))

int prototype(int a);

static int helper(void) { return 1; }

char *name_of(int id) { return 0; }

typedef struct Node {
    int value;
    struct Node *next;
} Node;

typedef struct {
    int x, y;
} Point;

struct Empty;

int main(int argc, char **argv) {
    return helper();
}
`
	got, classes := declarations(t, "c", ".c", src)
	assert.Equal(t, []string{
		"helper function",
		"name_of function",
		"main function",
	}, got)
	assert.Equal(t, []string{"Node", "Point"}, classes)
}

func TestCPP(t *testing.T) {
	t.Parallel()

	src := `
namespace geo {

class Shape {
public:
    Shape() {}
    virtual ~Shape() {}
    static int count() { return 0; }
    double area() const;
    void scale(double f) { factor = f; }
private:
    double factor;
};

double Shape::area() const { return 0; }

}

void geo::free_function() {}

auto twice = [](int x) { return x * 2; };

template <typename T>
T max_of(T a, T b) { return a > b ? a : b; }

int main() { return 0; }
`
	got, classes := declarations(t, "cpp", ".cpp", src)
	assert.Equal(t, []string{
		"Shape.Shape constructor",
		"Shape.~Shape method",
		"Shape.count method static",
		"Shape.scale method",
		"Shape.area method",
		"free_function function",
		"twice arrow",
		"max_of function",
		"main function",
	}, got)
	assert.Equal(t, []string{"Shape"}, classes)
}

func TestRust(t *testing.T) {
	t.Parallel()

	src := `
pub fn simple_function() {}

pub async fn async_function() {}

pub const LAMBDA: fn(i32) -> i32 = |x| x * 2;

pub struct Data {
    value: i32,
}

impl Data {
    pub fn new(value: i32) -> Self { Data { value } }
    pub fn get(&self) -> i32 { self.value }
    pub async fn refresh(&mut self) {}
    fn helper() -> i32 { 0 }
}

pub trait Printable {
    fn print(&self);
}

impl Printable for Data {
    fn print(&self) {}
}

mod inner {
    pub fn nested_module_fn() {
        fn local() {}
    }
}

macro_rules! make_fn {
    ($name:ident) => { fn $name() {} };
}

make_fn!(generated);
`
	got, classes := declarations(t, "rust", ".rs", src)
	assert.Equal(t, []string{
		"simple_function function",
		"async_function function async",
		"LAMBDA arrow",
		"Data.new constructor static",
		"Data.get method",
		"Data.refresh method async",
		"Data.helper method static",
		"nested_module_fn function",
	}, got)
	assert.Equal(t, []string{"Data"}, classes)
}

func TestGo(t *testing.T) {
	t.Parallel()

	src := `package demo

type Server struct{ addr string }

type Handler interface{ Serve() }

func NewServer(addr string) *Server { return &Server{addr: addr} }

func (s *Server) Start() error {
	run := func() {}
	run()
	return nil
}

var Hook = func() {}
`
	got, classes := declarations(t, "go", ".go", src)
	assert.Equal(t, []string{
		"NewServer function",
		"Server.Start method",
		"Hook arrow",
	}, got)
	assert.Equal(t, []string{"Server", "Handler"}, classes)
}

func TestRuby(t *testing.T) {
	t.Parallel()

	src := `
def top_level
end

class User
  def initialize(name)
    @name = name
  end

  def greet
    [1].each do |x|
      puts x
    end
  end

  def self.build
    new("x")
  end
end
`
	got, classes := declarations(t, "ruby", ".rb", src)
	assert.Equal(t, []string{
		"top_level function",
		"User.initialize constructor",
		"User.greet method",
		"User.build method static",
	}, got)
	assert.Equal(t, []string{"User"}, classes)
}

func TestSplitQualified(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want []string
	}{
		{"bar", []string{"bar"}},
		{"Foo::bar", []string{"Foo", "bar"}},
		{"ns::Foo<T>::bar", []string{"ns", "Foo", "bar"}},
		{"Foo::operator<", []string{"Foo", "operator<"}},
		{"::global", []string{"", "global"}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, splitQualified(tt.in), tt.in)
	}
}
