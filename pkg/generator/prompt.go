package generator

import (
	"fmt"
	"strings"

	"github.com/shouni/gemini-aspect-kit/pkg/domain"
)

// DefaultDescribeSystemPrompt は反推モードで常に付与するシステムプロンプトです。
const DefaultDescribeSystemPrompt = `You are an image-to-prompt specialist and a film-grade art director.
Goal: from the user's input images, reverse-engineer an extremely detailed prompt that an image model can use to reproduce the visual result.
Rules:
- Be concrete and fine-grained. Describe style and rendering in the most specific language possible.
- Always return structured output: Prompt (Japanese), Prompt (English), Negative Prompt (optional), a Style/Rendering checklist, camera/lens/composition, lighting, color, materials and atmosphere.
- Only describe what can be inferred from the images. Use hedged wording ("likely", "similar to") when unsure. Never invent brands or real identities.`

var focusHints = map[domain.DescribeTarget]string{
	domain.DescribeBackground: "Focus on the background and environment: scene type, spatial layout, materials, lighting, weather, mood and props. Treat people or subjects minimally.",
	domain.DescribePerson:     "Focus on the person or main subject: appearance, age range, build, pose, action, expression, hair, clothing, accessories, skin tone and texture. Keep the background brief.",
	domain.DescribeStyle:      "Focus on the style system: art movement, era, aesthetic, compositional language, color strategy, light and shadow, medium. Produce a reusable style template that any subject can adopt.",
	domain.DescribeRendering:  "Focus on rendering: brushwork, line art, coloring method, shading, edge handling, grain and noise, film or lens artifacts, texture overlays, sharpening, depth of field and tone curves.",
	domain.DescribeFull:       "Reproduce the whole image: subject, action, background, composition, camera, lighting, color, materials and style (in extreme detail).",
}

// FocusHint は反推の観点に対応する指示を返します。未知の値は full 扱いです。
func FocusHint(target domain.DescribeTarget) string {
	if hint, ok := focusHints[target]; ok {
		return hint
	}
	return focusHints[domain.DescribeFull]
}

// BuildDescribeDirective は反推モードでユーザーテキストとして送る指示文を組み立てます。
func BuildDescribeDirective(target domain.DescribeTarget, hint, imageModel string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You will receive one or more reference images. Reverse-engineer a prompt and answer strictly in the following Markdown format.\n\n")
	fmt.Fprintf(&b, "## 1) Prompt (Japanese, for %s)\n", imageModel)
	b.WriteString("- One copy-ready, highly detailed prompt. No explanation, no prefix.\n")
	b.WriteString("- Must cover subject/action/pose, background, composition, camera parameters, lighting, color, materials, mood, style, level of detail.\n\n")
	fmt.Fprintf(&b, "## 2) Prompt (English, for %s)\n", imageModel)
	b.WriteString("- Equivalent to the Japanese prompt, using common industry terminology.\n\n")
	b.WriteString("## 3) Negative Prompt (optional)\n")
	b.WriteString("- Elements and common defects to avoid. Do not pad the list.\n\n")
	b.WriteString("## 4) Style / Rendering checklist\n")
	b.WriteString("- Bullet points: medium, strokes, texture, grain, contrast curve, grading, edges, lighting model, reflections, film look, post-processing.\n\n")
	b.WriteString("## 5) Composition / Camera / Lighting\n")
	b.WriteString("- Composition rule, subject placement, viewpoint, depth of field, light direction and hardness, color temperature, ambient light, shadows.\n\n")
	fmt.Fprintf(&b, "Focus: %s\n", FocusHint(target))
	if h := strings.TrimSpace(hint); h != "" {
		fmt.Fprintf(&b, "Additional user request: %s\n", h)
	} else {
		b.WriteString("Additional user request: none.\n")
	}
	b.WriteString("\nDo not output paragraphs unrelated to the task.")
	return b.String()
}
