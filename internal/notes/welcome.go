package notes

// WelcomeTitle is the title of the note seeded on first run.
const WelcomeTitle = "Welcome to VibeNotes"

// WelcomeContent is the body of the note seeded on first run.
const WelcomeContent = "# Welcome to VibeNotes! ✍️\n\n" +
	"This is a **beautiful** handwritten-style note-taking app.\n\n" +
	"## Features\n\n" +
	"- 🎨 Five handwritten fonts to choose from\n" +
	"- 📄 Multiple page styles (ruled, dotted, grid, parchment)\n" +
	"- 🌙 Dark mode support\n" +
	"- 💾 Auto-save while you type\n" +
	"- 🖼️ Paste or drop images straight into a note\n\n" +
	"## Markdown Support\n\n" +
	"You can use *italic* and **bold** text, and even create lists:\n\n" +
	"1. First item\n" +
	"2. Second item\n" +
	"3. Third item\n\n" +
	"### Code Blocks\n\n" +
	"```javascript\n" +
	"function greet(name) {\n" +
	"  console.log(`Hello, ${name}!`);\n" +
	"}\n\n" +
	"greet(\"World\");\n" +
	"```\n\n" +
	"### Highlighting\n\n" +
	"Use ===triple equals=== to highlight important text!\n\n" +
	"Happy writing! ✨\n"
