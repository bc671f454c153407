package prompt

// Shared constraint block. Kept in one place so the initial and
// error-correction prompts cannot drift apart.
const constraintRules = `ALLOWED OPERATIONS (use nothing else):
- cube([x, y, z], center=true|false)
- sphere(r=radius)
- cylinder(h=height, r=radius, center=true|false)
- polygon(points=[[x,y], ...]) inside linear_extrude(height=h), for triangles and simple 2D outlines
- translate([x, y, z]), rotate([x, y, z]), scale([x, y, z])
- union(), difference()

NOT AVAILABLE: cone, pyramid, wedge, torus, polyhedron(), hull(), minkowski(),
rotate_extrude(), circle(), square(), text(), multmatrix(), mirror(), children().

SUBSTITUTIONS for shapes that are not available:
- cone -> cylinder
- pyramid -> cube, or stacked cubes of decreasing size
- wedge -> rotated cube
- torus -> cylinder with a smaller cylinder removed by difference()
- tube / pipe / ring -> cylinder with a smaller cylinder removed by difference()
- prism / triangle -> polygon with three points inside linear_extrude
- box -> cube
- ball -> sphere

DIMENSIONS are millimeters:
- every size between 1 and 500
- small parts 5-50, medium parts 50-200, large parts 200-500
- prefer round numbers

STRUCTURE:
- first line is: $fn = 50;
- at most 15 lines of code
- no module definitions, no functions, no loops, no conditionals
- every variable is assigned before it is used
- every statement ends with a semicolon
- every bracket and brace is closed
- always pass center=true or center=false explicitly`

const outputContract = `Return ONLY OpenSCAD source. No markdown, no backticks, no explanations.`

const initialTemplate = `You are an expert OpenSCAD programmer. Write SIMPLE OpenSCAD code that compiles on the first try.

USER REQUEST: %s

%s

EXAMPLE:
$fn = 50;
difference() {
  cube([40, 40, 40], center=true);
  cylinder(h=50, r=8, center=true);
}

%s`

const refinementTemplate = `You are an expert OpenSCAD programmer REFINING an existing model.

The current code is authoritative. Change ONLY what the new request mentions and keep
everything else exactly as it is. Do not regenerate the model.
%s
CURRENT CODE:
%s

NEW REQUEST: %s

POSITIONING:
- place new parts relative to the existing components listed above
- use translate() to offset new parts from existing ones
- "on top of X" means above X, "next to X" means beside X, "connect to X" means touching X

REFINEMENT RULES:
1. "add" inserts new parts without removing existing ones
2. "change" modifies only the named parts
3. "remove" deletes only the named parts
4. keep the existing structure, naming and style
5. every variable is assigned before use and every statement ends with a semicolon

%s`

const errorCorrectionTemplate = `The previous OpenSCAD code failed to compile%s. Fix it.

ORIGINAL REQUEST: %s

PREVIOUS CODE:
%s

COMPILER OUTPUT:
%s

REMOVE anything that may have caused the failure:
1. math functions and constants (PI, sin, cos, tan, sqrt)
2. for loops and conditionals
3. undefined or misspelled variables
4. module and function definitions
5. operations that are not in the allowed list

Rewrite the code to be SIMPLER while satisfying these constraints:

%s

%s`
