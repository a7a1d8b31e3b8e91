package engine

import (
	"strings"
)

// Properties rendering engine understands. Vendor prefixed and proprietary
// print properties (prince-*, -ah-*, string-set...) are not here on purpose,
// they are reported as unsupported.
var knownProperties = makeSet(`
	accent-color align-content align-items align-self all animation animation-delay animation-direction
	animation-duration animation-fill-mode animation-iteration-count animation-name animation-play-state
	animation-timing-function appearance aspect-ratio backdrop-filter backface-visibility background
	background-attachment background-blend-mode background-clip background-color background-image
	background-origin background-position background-position-x background-position-y background-repeat
	background-size block-size border border-block border-block-color border-block-end border-block-start
	border-block-style border-block-width border-bottom border-bottom-color border-bottom-left-radius
	border-bottom-right-radius border-bottom-style border-bottom-width border-collapse border-color
	border-image border-image-outset border-image-repeat border-image-slice border-image-source
	border-image-width border-inline border-inline-color border-inline-end border-inline-start
	border-inline-style border-inline-width border-left border-left-color border-left-style
	border-left-width border-radius border-right border-right-color border-right-style border-right-width
	border-spacing border-style border-top border-top-color border-top-left-radius
	border-top-right-radius border-top-style border-top-width border-width bottom box-decoration-break
	box-shadow box-sizing break-after break-before break-inside caption-side caret-color clear clip
	clip-path color color-scheme column-count column-fill column-gap column-rule column-rule-color
	column-rule-style column-rule-width column-span column-width columns contain container
	container-name container-type content content-visibility counter-increment counter-reset
	counter-set cursor direction display empty-cells fill filter flex flex-basis flex-direction
	flex-flow flex-grow flex-shrink flex-wrap float font font-family font-feature-settings font-kerning
	font-language-override font-optical-sizing font-size font-size-adjust font-stretch font-style
	font-synthesis font-variant font-variant-caps font-variant-east-asian font-variant-ligatures
	font-variant-numeric font-variant-position font-variation-settings font-weight gap grid grid-area
	grid-auto-columns grid-auto-flow grid-auto-rows grid-column grid-column-end grid-column-gap
	grid-column-start grid-gap grid-row grid-row-end grid-row-gap grid-row-start grid-template
	grid-template-areas grid-template-columns grid-template-rows hanging-punctuation height hyphens
	image-orientation image-rendering inline-size inset inset-block inset-inline isolation
	justify-content justify-items justify-self left letter-spacing line-break line-height list-style
	list-style-image list-style-position list-style-type margin margin-block margin-block-end
	margin-block-start margin-bottom margin-inline margin-inline-end margin-inline-start margin-left
	margin-right margin-top mask mask-image max-block-size max-height max-inline-size max-width
	min-block-size min-height min-inline-size min-width mix-blend-mode object-fit object-position
	opacity order orphans outline outline-color outline-offset outline-style outline-width overflow
	overflow-anchor overflow-wrap overflow-x overflow-y padding padding-block padding-block-end
	padding-block-start padding-bottom padding-inline padding-inline-end padding-inline-start
	padding-left padding-right padding-top page page-break-after page-break-before page-break-inside
	perspective perspective-origin place-content place-items place-self pointer-events position quotes
	resize right rotate row-gap scale scroll-behavior scroll-margin scroll-padding shape-outside size
	stroke stroke-width tab-size table-layout text-align text-align-last text-combine-upright
	text-decoration text-decoration-color text-decoration-line text-decoration-skip-ink
	text-decoration-style text-decoration-thickness text-emphasis text-indent text-justify
	text-orientation text-overflow text-rendering text-shadow text-transform text-underline-offset
	text-underline-position top touch-action transform transform-origin transform-style transition
	transition-delay transition-duration transition-property transition-timing-function translate
	unicode-bidi user-select vertical-align visibility white-space widows width will-change word-break
	word-spacing word-wrap writing-mode z-index zoom
`)

// Properties whose values are keywords only.
var keywordProperties = map[string]map[string]struct{}{
	"display": makeSet(`none contents block inline inline-block run-in flow flow-root table inline-table
		table-row-group table-header-group table-footer-group table-row table-cell table-column-group
		table-column table-caption flex inline-flex grid inline-grid list-item ruby ruby-base ruby-text
		ruby-base-container ruby-text-container math`),
	"position":            makeSet(`static relative absolute fixed sticky`),
	"float":               makeSet(`none left right inline-start inline-end`),
	"clear":               makeSet(`none left right both inline-start inline-end`),
	"visibility":          makeSet(`visible hidden collapse`),
	"overflow":            makeSet(`visible hidden clip scroll auto`),
	"overflow-x":          makeSet(`visible hidden clip scroll auto`),
	"overflow-y":          makeSet(`visible hidden clip scroll auto`),
	"text-align":          makeSet(`start end left right center justify justify-all match-parent`),
	"text-transform":      makeSet(`none capitalize uppercase lowercase full-width full-size-kana`),
	"white-space":         makeSet(`normal pre nowrap pre-wrap pre-line break-spaces`),
	"font-style":          makeSet(`normal italic oblique`),
	"box-sizing":          makeSet(`content-box border-box`),
	"border-collapse":     makeSet(`collapse separate`),
	"table-layout":        makeSet(`auto fixed`),
	"caption-side":        makeSet(`top bottom`),
	"empty-cells":         makeSet(`show hide`),
	"direction":           makeSet(`ltr rtl`),
	"list-style-position": makeSet(`inside outside`),
	"page-break-before":   makeSet(`auto always avoid left right`),
	"page-break-after":    makeSet(`auto always avoid left right`),
	"page-break-inside":   makeSet(`auto avoid`),
	"break-before":        makeSet(`auto avoid always all avoid-page page left right recto verso avoid-column column avoid-region region`),
	"break-after":         makeSet(`auto avoid always all avoid-page page left right recto verso avoid-column column avoid-region region`),
	"break-inside":        makeSet(`auto avoid avoid-page avoid-column avoid-region`),
	"hyphens":             makeSet(`none manual auto`),
	"word-break":          makeSet(`normal break-all keep-all break-word`),
	"overflow-wrap":       makeSet(`normal break-word anywhere`),
	"word-wrap":           makeSet(`normal break-word anywhere`),
	"unicode-bidi":        makeSet(`normal embed isolate bidi-override isolate-override plaintext`),
	"flex-direction":      makeSet(`row row-reverse column column-reverse`),
	"flex-wrap":           makeSet(`nowrap wrap wrap-reverse`),
	"object-fit":          makeSet(`fill contain cover none scale-down`),
	"user-select":         makeSet(`auto text none contain all`),
	"resize":              makeSet(`none both horizontal vertical block inline`),
	"writing-mode":        makeSet(`horizontal-tb vertical-rl vertical-lr sideways-rl sideways-lr`),
}

var globalKeywords = makeSet(`inherit initial unset revert revert-layer`)

func makeSet(words string) map[string]struct{} {
	fields := strings.Fields(words)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Supports reports whether property with value would be accepted by the
// rendering engine.
func Supports(property, value string) bool {
	property = strings.ToLower(strings.TrimSpace(property))
	value = strings.TrimSpace(value)
	if len(property) == 0 || len(value) == 0 {
		return false
	}
	if strings.HasPrefix(property, "--") {
		return true
	}

	name := strings.TrimPrefix(property, "-webkit-")
	if _, known := knownProperties[name]; !known {
		return false
	}

	lower := strings.ToLower(value)
	if _, global := globalKeywords[lower]; global {
		return true
	}
	if strings.Contains(lower, "var(") {
		return true
	}

	keywords, restricted := keywordProperties[name]
	if !restricted {
		return true
	}
	for _, word := range strings.Fields(lower) {
		if _, ok := keywords[word]; !ok {
			return false
		}
	}
	return true
}

// SupportsDeclaration checks declaration in canonical "property: value"
// form, optionally followed by "!important".
func SupportsDeclaration(key string) bool {
	property, value, found := strings.Cut(key, ":")
	if !found {
		return false
	}
	value = strings.TrimSpace(value)
	if v, ok := strings.CutSuffix(value, "!important"); ok {
		value = v
	}
	return Supports(property, value)
}
