package mcpserver

// DocumentFormatContract describes the documents produced by a conversion
// run so LLM consumers can interpret their front-matter.
const DocumentFormatContract = `# mw2md Document Format

Every converted wiki page is a Markdown file with a YAML front-matter block.

## Structure

` + "```" + `markdown
---
title: Setup                     # display title (last title segment)
category: guides                 # output directory category, omitted when unknown
authors: alice, bob              # every wiki username that edited the page
wiki_category: Guides            # raw [[Category:...]] of the final revision
wiki_title: HowTo/Setup          # original wiki title
wiki_revision_count: 4
wiki_last_updated: 2020-01-02
wiki_conversion_fallback: true   # only when the HTML fallback produced the body
wiki_warnings: conversion-fallback
---

# Setup

Body converted from wiki markup.
` + "```" + `

## Notes

1. Keys with no value are omitted rather than written as null.
2. Extra keys may appear when the rules file captures values from page text.
3. Paths are lowercase, use forward slashes and end with the configured
   extension (default ` + "`" + `.html.md` + "`" + `).
4. Pages that redirect have no document; use ` + "`" + `resolve_title` + "`" + ` to follow them.
5. Pages listed by ` + "`" + `list_conversion_errors` + "`" + ` have no document for the
   failed revision; their original markup is kept as an error report.
`
